package completestudentprofile

import (
	"context"
	"testing"
	"time"

	"advisor-match-workers/internal/common/errors"
	"advisor-match-workers/internal/common/logger"
	"advisor-match-workers/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

func setupHandler(t *testing.T, cfg *Config) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewTestLogger(t)
	return NewHandler(cfg, store.New(db, log), nil, log), mock
}

func studentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "name", "academic_field", "research_interests", "career_goals",
		"preferred_advisor_types", "year_level", "completed_profile", "has_matched",
		"matched_advisor_id", "match_date", "created_at", "updated_at",
	})
}

func TestHandler_Execute_Success(t *testing.T) {
	h, mock := setupHandler(t, DefaultConfig())

	mock.ExpectQuery("UPDATE students").
		WithArgs("u1", "Computer Science", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "PhD", sqlmock.AnyArg()).
		WillReturnRows(studentRows().AddRow(
			"s1", "u1", "Ada", "Computer Science", `{"Deep Learning",nlp,compilers}`, "{}", "{}", "PhD",
			true, false, nil, nil, now, now))
	mock.ExpectExec("INSERT INTO audit_log").WillReturnResult(sqlmock.NewResult(1, 1))

	out, err := h.Execute(context.Background(), &Input{
		UserID:            "u1",
		ResearchInterests: []string{" Deep Learning ", "", "nlp", "compilers"},
		YearLevel:         "PhD",
	})

	require.NoError(t, err)
	assert.Equal(t, "s1", out.StudentID)
	assert.Equal(t, []string{"Deep Learning", "nlp", "compilers"}, out.ResearchInterests)
	assert.Equal(t, []string{"Artificial Intelligence", "compilers"}, out.InterestCategories)
	assert.True(t, out.ReadyForMatching)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_AlreadyMatchedIsNotReady(t *testing.T) {
	h, mock := setupHandler(t, DefaultConfig())

	mock.ExpectQuery("UPDATE students").
		WillReturnRows(studentRows().AddRow(
			"s1", "u1", "Ada", "Physics", "{optics}", "{}", "{}", "",
			true, true, "a1", now, now, now))
	mock.ExpectExec("INSERT INTO audit_log").WillReturnResult(sqlmock.NewResult(1, 1))

	out, err := h.Execute(context.Background(), &Input{UserID: "u1", AcademicField: "Physics", ResearchInterests: []string{"optics"}})

	require.NoError(t, err)
	assert.True(t, out.CompletedProfile)
	assert.False(t, out.ReadyForMatching)
}

func TestHandler_Execute_Errors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxInterests = 2

	t.Run("missing user", func(t *testing.T) {
		h, _ := setupHandler(t, cfg)
		_, err := h.Execute(context.Background(), &Input{})
		assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
	})

	t.Run("too many interests", func(t *testing.T) {
		h, _ := setupHandler(t, cfg)
		_, err := h.Execute(context.Background(), &Input{UserID: "u1", ResearchInterests: []string{"a", "b", "c"}})
		assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
	})

	t.Run("unknown user", func(t *testing.T) {
		h, mock := setupHandler(t, cfg)
		mock.ExpectQuery("UPDATE students").WillReturnRows(studentRows())

		_, err := h.Execute(context.Background(), &Input{UserID: "ghost", ResearchInterests: []string{"a"}})
		assert.True(t, errors.HasCode(err, errors.ErrCodeProfileNotFound))
	})
}

func TestCleanList(t *testing.T) {
	assert.Equal(t, []string{"ml", "ml"}, cleanList([]string{" ml", "", "  ", "ml "}))
	assert.Equal(t, []string{}, cleanList(nil))
}

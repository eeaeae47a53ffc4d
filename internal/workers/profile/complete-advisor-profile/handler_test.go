package completeadvisorprofile

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"advisor-match-workers/internal/common/errors"
	"advisor-match-workers/internal/common/logger"
	"advisor-match-workers/internal/models"
	"advisor-match-workers/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

type fakeIndexer struct {
	indexed []models.AdvisorProfile
	err     error
}

func (f *fakeIndexer) IndexAdvisor(_ context.Context, p models.AdvisorProfile) error {
	if f.err != nil {
		return f.err
	}
	f.indexed = append(f.indexed, p)
	return nil
}

func setupHandler(t *testing.T, cfg *Config, idx Indexer) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewTestLogger(t)
	return NewHandler(cfg, store.New(db, log), idx, nil, log), mock
}

func advisorRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "name", "email", "staff_number", "department", "research_interests",
		"expertise_areas", "max_students", "available_slots", "bio", "completed_profile",
		"created_at", "updated_at",
	})
}

// expectComplete queues the read of the current profile (load 1 of 5) and the update.
func expectComplete(mock sqlmock.Sqlmock, maxStudents, slots int) {
	mock.ExpectQuery("SELECT (.+) FROM advisors WHERE user_id").
		WithArgs("u2").
		WillReturnRows(advisorRows().AddRow(
			"a1", "u2", "Dr. Lin", "", "", "Computer Science", "{}", "{}",
			5, 4, "", false, now, now))
	mock.ExpectQuery("UPDATE advisors").
		WillReturnRows(advisorRows().AddRow(
			"a1", "u2", "Dr. Lin", "lin@uni.edu", "S-1", "Computer Science", "{ml,nlp}", "{nlp,vision}",
			maxStudents, slots, "", true, now, now))
	mock.ExpectExec("INSERT INTO audit_log").WillReturnResult(sqlmock.NewResult(1, 1))
}

// ==========================================
// Success cases
// ==========================================

func TestHandler_Execute_IndexesProfile(t *testing.T) {
	idx := &fakeIndexer{}
	h, mock := setupHandler(t, DefaultConfig(), idx)
	expectComplete(mock, 8, 7)

	out, err := h.Execute(context.Background(), &Input{
		UserID:            "u2",
		Email:             " Lin@Uni.edu ",
		StaffNumber:       "S-1",
		ResearchInterests: []string{"ml", "nlp"},
		ExpertiseAreas:    []string{"nlp", "vision"},
		MaxStudents:       8,
	})

	require.NoError(t, err)
	assert.Equal(t, "a1", out.AdvisorID)
	assert.Equal(t, []string{"ml", "nlp", "vision"}, out.ResearchFocus)
	assert.Equal(t, 8, out.MaxStudents)
	assert.Equal(t, 7, out.AvailableSlots)
	assert.True(t, out.Indexed)
	require.Len(t, idx.indexed, 1)
	assert.Equal(t, "a1", idx.indexed[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_IndexFailureIsTolerated(t *testing.T) {
	idx := &fakeIndexer{err: errors.NewIndexFailedError("advisors", stderrors.New("cluster red"))}
	h, mock := setupHandler(t, DefaultConfig(), idx)
	expectComplete(mock, 5, 4)

	out, err := h.Execute(context.Background(), &Input{UserID: "u2", ResearchInterests: []string{"ml"}})

	require.NoError(t, err)
	assert.False(t, out.Indexed)
}

func TestHandler_Execute_IndexFailureRequired(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequireIndexed = true
	idx := &fakeIndexer{err: errors.NewIndexFailedError("advisors", stderrors.New("cluster red"))}
	h, mock := setupHandler(t, cfg, idx)
	expectComplete(mock, 5, 4)

	_, err := h.Execute(context.Background(), &Input{UserID: "u2", ResearchInterests: []string{"ml"}})

	assert.True(t, errors.HasCode(err, errors.ErrCodeIndexFailed))
}

func TestHandler_Execute_NoIndexer(t *testing.T) {
	h, mock := setupHandler(t, DefaultConfig(), nil)
	expectComplete(mock, 5, 4)

	out, err := h.Execute(context.Background(), &Input{UserID: "u2", ResearchInterests: []string{"ml"}})

	require.NoError(t, err)
	assert.False(t, out.Indexed)
}

// ==========================================
// Error cases
// ==========================================

func TestHandler_Execute_Validation(t *testing.T) {
	h, _ := setupHandler(t, DefaultConfig(), nil)

	_, err := h.Execute(context.Background(), &Input{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))

	_, err = h.Execute(context.Background(), &Input{UserID: "u2", MaxStudents: 500})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
}

func TestHandler_Execute_CapacityBelowLoad(t *testing.T) {
	h, mock := setupHandler(t, DefaultConfig(), &fakeIndexer{})
	mock.ExpectQuery("SELECT (.+) FROM advisors WHERE user_id").
		WillReturnRows(advisorRows().AddRow(
			"a1", "u2", "Dr. Lin", "", "", "Computer Science", "{}", "{}",
			5, 1, "", true, now, now))

	_, err := h.Execute(context.Background(), &Input{UserID: "u2", MaxStudents: 2, ResearchInterests: []string{"ml"}})

	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrimAll(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, trimAll([]string{" a ", "", "b"}))
}

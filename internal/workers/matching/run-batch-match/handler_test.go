package runbatchmatch

import (
	"context"
	"testing"
	"time"

	"advisor-match-workers/internal/common/errors"
	"advisor-match-workers/internal/common/logger"
	"advisor-match-workers/internal/models"
	"advisor-match-workers/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

type fakeIndexer struct{ ids []string }

func (f *fakeIndexer) IndexAdvisor(_ context.Context, p models.AdvisorProfile) error {
	f.ids = append(f.ids, p.ID)
	return nil
}

type fixture struct {
	handler *Handler
	mock    sqlmock.Sqlmock
	redis   *miniredis.Miniredis
	indexer *fakeIndexer
}

func setup(t *testing.T) *fixture {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log := logger.NewTestLogger(t)
	idx := &fakeIndexer{}
	h := NewHandler(DefaultConfig(), store.New(db, log), store.NewLocker(client, time.Minute), idx, nil, log)
	return &fixture{handler: h, mock: mock, redis: mr, indexer: idx}
}

func studentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "name", "academic_field", "research_interests", "career_goals",
		"preferred_advisor_types", "year_level", "completed_profile", "has_matched",
		"matched_advisor_id", "match_date", "created_at", "updated_at",
	}).
		AddRow("s1", "u1", "Ada", "Computer Science", "{ml}", "{}", "{}", "", true, false, nil, nil, now, now).
		AddRow("s2", "u2", "Bo", "Physics", "{optics}", "{}", "{}", "", true, false, nil, nil, now, now)
}

func advisorRows(slots int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "name", "email", "staff_number", "department", "research_interests",
		"expertise_areas", "max_students", "available_slots", "bio", "completed_profile",
		"created_at", "updated_at",
	}).AddRow("a1", "u9", "Dr. Lin", "", "", "Computer Science", "{ml}", "{}", 2, slots, "", true, now, now)
}

func (f *fixture) expectLoad() {
	f.mock.ExpectQuery("SELECT (.+) FROM students").
		WithArgs(500).
		WillReturnRows(studentRows())
	f.mock.ExpectQuery("SELECT (.+) FROM advisors WHERE completed_profile").
		WillReturnRows(advisorRows(2))
}

// ==========================================
// Persisted runs
// ==========================================

func TestHandler_Execute_CommitsStrongMatches(t *testing.T) {
	f := setup(t)
	f.expectLoad()

	f.mock.ExpectBegin()
	f.mock.ExpectExec("UPDATE students").WithArgs("s1", "a1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec("UPDATE advisors").WithArgs("a1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec("INSERT INTO matches").WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()
	f.mock.ExpectExec("INSERT INTO audit_log").WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectQuery("SELECT (.+) FROM advisors WHERE id = ANY").WillReturnRows(advisorRows(1))

	out, err := f.handler.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Equal(t, SourcePostgres, out.Source)
	assert.Equal(t, 2, out.TotalStudents)
	assert.Equal(t, 1, out.Matched)
	assert.Equal(t, 1, out.Unmatched)
	assert.Equal(t, 1, out.Committed)
	assert.Len(t, out.MatchIDs, 1)
	assert.Empty(t, out.Conflicts)

	require.Len(t, out.Results, 2)
	assert.Equal(t, models.StatusStrongMatch, out.Results[0].Status)
	assert.Equal(t, "a1", out.Results[0].AssignedAdvisor.AdvisorID)
	assert.Equal(t, models.StatusNoMatch, out.Results[1].Status)

	assert.Equal(t, []string{"a1"}, f.indexer.ids)
	assert.False(t, f.redis.Exists("lock:matching:batch"), "lock must be released")
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestHandler_Execute_CapacityConflictIsReported(t *testing.T) {
	f := setup(t)
	f.expectLoad()

	f.mock.ExpectBegin()
	f.mock.ExpectExec("UPDATE students").WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec("UPDATE advisors").WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectRollback()

	out, err := f.handler.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Equal(t, 0, out.Committed)
	require.Len(t, out.Conflicts, 1)
	assert.Equal(t, Conflict{StudentID: "s1", AdvisorID: "a1", Code: "CAPACITY_CONFLICT"}, out.Conflicts[0])
	assert.Empty(t, f.indexer.ids)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestHandler_Execute_DryRunWritesNothing(t *testing.T) {
	f := setup(t)
	f.mock.ExpectQuery("SELECT (.+) FROM students").WithArgs(10).WillReturnRows(studentRows())
	f.mock.ExpectQuery("SELECT (.+) FROM advisors WHERE completed_profile").WillReturnRows(advisorRows(2))

	out, err := f.handler.Execute(context.Background(), &Input{Limit: 10, DryRun: true})

	require.NoError(t, err)
	assert.True(t, out.DryRun)
	assert.Equal(t, 1, out.Matched)
	assert.Equal(t, 0, out.Committed)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestHandler_Execute_LockHeld(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.redis.Set("lock:matching:batch", "other-run"))

	_, err := f.handler.Execute(context.Background(), &Input{})

	assert.True(t, errors.HasCode(err, errors.ErrCodeMatchingInProgress))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestHandler_Execute_LoadFailureReleasesLock(t *testing.T) {
	f := setup(t)
	f.mock.ExpectQuery("SELECT (.+) FROM students").WillReturnError(assert.AnError)

	_, err := f.handler.Execute(context.Background(), &Input{})

	assert.True(t, errors.HasCode(err, errors.ErrCodeQueryExecutionFailed))
	assert.False(t, f.redis.Exists("lock:matching:batch"))
}

// ==========================================
// In-memory runs
// ==========================================

func TestHandler_Execute_InMemory(t *testing.T) {
	f := setup(t)

	advisors := []models.Advisor{
		{ID: "a1", Name: "Dr. X", Specialization: "CS", ResearchFocus: []string{"ml"}, MaxCapacity: 1},
	}
	input := &Input{
		Students: []models.Student{
			{ID: "s1", Name: "Ada", AcademicField: "CS", ResearchInterests: []string{"ml"}},
			{ID: "s2", Name: "Bo", AcademicField: "CS", ResearchInterests: []string{"ml"}},
		},
		Advisors: advisors,
	}

	out, err := f.handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, SourceJob, out.Source)
	assert.True(t, out.DryRun)
	assert.Equal(t, 1, out.Matched)
	assert.Equal(t, 1, out.Unmatched)
	assert.Equal(t, 0, advisors[0].CurrentLoad, "job records are not mutated")
	assert.False(t, f.redis.Exists("lock:matching:batch"))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestHandler_Execute_NegativeLimit(t *testing.T) {
	f := setup(t)
	_, err := f.handler.Execute(context.Background(), &Input{Limit: -1})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
}

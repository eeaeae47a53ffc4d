package reviewmatch

import (
	"context"
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

var (
	created  = time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	reviewed = time.Date(2025, 2, 3, 9, 30, 0, 0, time.UTC)
)

type fakeIndexer struct{ profiles []models.AdvisorProfile }

func (f *fakeIndexer) IndexAdvisor(_ context.Context, p models.AdvisorProfile) error {
	f.profiles = append(f.profiles, p)
	return nil
}

func setupHandler(t *testing.T) (*Handler, sqlmock.Sqlmock, *fakeIndexer) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewTestLogger(t)
	idx := &fakeIndexer{}
	st := store.New(db, log, store.WithClock(func() time.Time { return reviewed }))
	return NewHandler(DefaultConfig(), st, idx, nil, log), mock, idx
}

func matchRow(advisorID, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "student_id", "advisor_id", "match_reason", "match_score", "status", "created_at", "reviewed_at",
	}).AddRow("m1", "s1", advisorID, "Shares same field", 85.71, status, created, nil)
}

// ==========================================
// Decisions
// ==========================================

func TestHandler_Execute_Accept(t *testing.T) {
	h, mock, idx := setupHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM matches WHERE id = \\$1 FOR UPDATE").WithArgs("m1").
		WillReturnRows(matchRow("a1", "pending"))
	mock.ExpectExec("UPDATE matches SET status").WithArgs("m1", "accepted", reviewed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec("INSERT INTO audit_log").WillReturnResult(sqlmock.NewResult(1, 1))

	out, err := h.Execute(context.Background(), &Input{MatchID: "m1", AdvisorID: "a1", Decision: "ACCEPT"})

	require.NoError(t, err)
	assert.Equal(t, "accepted", out.Status)
	assert.Equal(t, "s1", out.StudentID)
	assert.Equal(t, "2025-02-03T09:30:00Z", out.ReviewedAt)
	assert.False(t, out.SlotReleased)
	assert.Nil(t, out.AvailableSlots)
	assert.Empty(t, idx.profiles)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_RejectReleasesSlot(t *testing.T) {
	h, mock, idx := setupHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM matches WHERE id = \\$1 FOR UPDATE").
		WillReturnRows(matchRow("a1", "pending"))
	mock.ExpectExec("UPDATE matches SET status").WithArgs("m1", "rejected", reviewed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE advisors").WithArgs("a1", reviewed).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE students").WithArgs("s1", "a1", reviewed).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec("INSERT INTO audit_log").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT (.+) FROM advisors WHERE id").WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "name", "email", "staff_number", "department", "research_interests",
			"expertise_areas", "max_students", "available_slots", "bio", "completed_profile",
			"created_at", "updated_at",
		}).AddRow("a1", "u9", "Dr. Lin", "", "", "Computer Science", "{ml}", "{}", 3, 2, "", true, created, reviewed))

	out, err := h.Execute(context.Background(), &Input{MatchID: "m1", AdvisorID: "a1", Decision: "reject"})

	require.NoError(t, err)
	assert.Equal(t, "rejected", out.Status)
	assert.True(t, out.SlotReleased)
	require.NotNil(t, out.AvailableSlots)
	assert.Equal(t, 2, *out.AvailableSlots)
	require.Len(t, idx.profiles, 1)
	assert.Equal(t, 2, idx.profiles[0].AvailableSlots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================================
// Error cases
// ==========================================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    Input
		setup    func(mock sqlmock.Sqlmock)
		wantCode errors.ErrorCode
	}{
		{
			name:     "bad decision",
			input:    Input{MatchID: "m1", AdvisorID: "a1", Decision: "maybe"},
			wantCode: errors.ErrCodeValidationFailed,
		},
		{
			name:     "missing ids",
			input:    Input{Decision: "accept"},
			wantCode: errors.ErrCodeValidationFailed,
		},
		{
			name:  "unknown match",
			input: Input{MatchID: "m404", AdvisorID: "a1", Decision: "accept"},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT (.+) FROM matches").WillReturnRows(sqlmock.NewRows([]string{"id"}))
				mock.ExpectRollback()
			},
			wantCode: errors.ErrCodeMatchNotFound,
		},
		{
			name:  "already reviewed",
			input: Input{MatchID: "m1", AdvisorID: "a1", Decision: "reject"},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT (.+) FROM matches").WillReturnRows(matchRow("a1", "accepted"))
				mock.ExpectRollback()
			},
			wantCode: errors.ErrCodeMatchAlreadyReviewed,
		},
		{
			name:  "other advisor",
			input: Input{MatchID: "m1", AdvisorID: "a2", Decision: "accept"},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT (.+) FROM matches").WillReturnRows(matchRow("a1", "pending"))
				mock.ExpectRollback()
			},
			wantCode: "BUSINESS_RULE_VIOLATION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mock, _ := setupHandler(t)
			if tt.setup != nil {
				tt.setup(mock)
			}

			_, err := h.Execute(context.Background(), &tt.input)

			assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

package store

import (
	"context"
	stderrors "errors"
	"regexp"
	"testing"
	"time"

	"advisor-match-workers/internal/common/errors"
	"advisor-match-workers/internal/common/logger"
	"advisor-match-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func setupMockDB(t *testing.T, opts ...Option) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(db, logger.NewTestLogger(t), opts...), mock
}

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func studentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "name", "academic_field", "research_interests", "career_goals",
		"preferred_advisor_types", "year_level", "completed_profile", "has_matched",
		"matched_advisor_id", "match_date", "created_at", "updated_at",
	})
}

func advisorRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "name", "email", "staff_number", "department", "research_interests",
		"expertise_areas", "max_students", "available_slots", "bio", "completed_profile",
		"created_at", "updated_at",
	})
}

func matchRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "student_id", "advisor_id", "match_reason", "match_score", "status", "created_at", "reviewed_at",
	})
}

// ==========================================
// Migrate
// ==========================================

func TestMigrate(t *testing.T) {
	s, mock := setupMockDB(t)

	for range schema {
		mock.ExpectExec("CREATE (TABLE|INDEX) IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, Migrate(context.Background(), s.DB()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_StopsOnFailure(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnError(stderrors.New("permission denied"))

	err := Migrate(context.Background(), s.DB())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration statement 1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================================
// Users
// ==========================================

func TestRegisterUser_Student(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM users WHERE identifier = $1)")).
		WithArgs("ada@uni.edu").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "Ada", "ada@uni.edu", "hash", "student", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "Ada", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectExec("INSERT INTO audit_log").WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{Name: "Ada", Identifier: "ada@uni.edu", PasswordHash: "hash", Role: models.RoleStudent}
	profileID, err := s.RegisterUser(context.Background(), user, 0)

	require.NoError(t, err)
	assert.NotEmpty(t, profileID)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, fixedNow, user.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterUser_AdvisorGetsCapacity(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT EXISTS").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO advisors").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "Dr. Grace", 3, fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectExec("INSERT INTO audit_log").WillReturnError(stderrors.New("no audit table"))

	user := &models.User{Name: "Dr. Grace", Identifier: "STAFF-7", PasswordHash: "hash", Role: models.RoleAdvisor}
	_, err := s.RegisterUser(context.Background(), user, 3)

	require.NoError(t, err, "audit failures are not fatal")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterUser_Duplicate(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("ada@uni.edu").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := s.RegisterUser(context.Background(), &models.User{Identifier: "ada@uni.edu", Role: models.RoleStudent}, 0)

	assert.True(t, errors.HasCode(err, errors.ErrCodeUserAlreadyExists))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterUser_RollsBackOnProfileFailure(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT EXISTS").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO students").WillReturnError(stderrors.New("constraint violation"))
	mock.ExpectRollback()

	_, err := s.RegisterUser(context.Background(), &models.User{Name: "Ada", Identifier: "x", Role: models.RoleStudent}, 0)

	assert.True(t, errors.HasCode(err, errors.ErrCodeDatabaseInsertFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUserByIdentifier(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE identifier").
		WithArgs("ada@uni.edu").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "identifier", "password_hash", "role", "created_at", "updated_at"}).
			AddRow("u1", "Ada", "ada@uni.edu", "hash", "student", fixedNow, fixedNow))
	mock.ExpectQuery("SELECT (.+) FROM users WHERE identifier").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	u, err := s.FindUserByIdentifier(context.Background(), "ada@uni.edu")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, u.Role)
	assert.Equal(t, "hash", u.PasswordHash)

	u, err = s.FindUserByIdentifier(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================================
// Students
// ==========================================

func TestGetStudent_CacheAside(t *testing.T) {
	mr, client := setupMiniredis(t)
	s, mock := setupMockDB(t, WithCache(client, time.Minute))

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE id = $1")).
		WithArgs("s1").
		WillReturnRows(studentRows().AddRow(
			"s1", "u1", "Ada", "Computer Science", "{ml,nlp}", "{}", "{}", "PhD",
			true, false, nil, nil, fixedNow, fixedNow))

	first, err := s.GetStudent(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ml", "nlp"}, first.ResearchInterests)
	assert.Equal(t, []string{}, first.CareerGoals)
	assert.True(t, mr.Exists("profile:student:s1"))

	// served from Redis, no second query expected
	second, err := s.GetStudent(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, first.ResearchInterests, second.ResearchInterests)

	ttl := mr.TTL("profile:student:s1")
	assert.Equal(t, time.Minute, ttl)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStudent_NotFound(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectQuery("FROM students WHERE id").
		WithArgs("missing").
		WillReturnRows(studentRows())

	_, err := s.GetStudent(context.Background(), "missing")
	assert.True(t, errors.HasCode(err, errors.ErrCodeProfileNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteStudentProfile_DefaultsFieldAndInvalidatesCache(t *testing.T) {
	mr, client := setupMiniredis(t)
	s, mock := setupMockDB(t, WithCache(client, time.Minute))
	require.NoError(t, mr.Set("profile:student:s1", `{"id":"s1"}`))

	mock.ExpectQuery("UPDATE students").
		WithArgs("u1", "Computer Science", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "Masters", fixedNow).
		WillReturnRows(studentRows().AddRow(
			"s1", "u1", "Ada", "Computer Science", "{ml}", "{research}", "{}", "Masters",
			true, false, nil, nil, fixedNow, fixedNow))
	mock.ExpectExec("INSERT INTO audit_log").WillReturnResult(sqlmock.NewResult(1, 1))

	p, err := s.CompleteStudentProfile(context.Background(), "u1", StudentProfileUpdate{
		ResearchInterests: []string{"ml"},
		CareerGoals:       []string{"research"},
		YearLevel:         "Masters",
	})

	require.NoError(t, err)
	assert.True(t, p.CompletedProfile)
	assert.False(t, mr.Exists("profile:student:s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUnmatchedStudents(t *testing.T) {
	s, mock := setupMockDB(t)
	matchDate := fixedNow.Add(-time.Hour)

	mock.ExpectQuery("WHERE completed_profile = TRUE AND has_matched = FALSE (.+) LIMIT").
		WithArgs(10).
		WillReturnRows(studentRows().
			AddRow("s1", "u1", "Ada", "Computer Science", "{ml}", "{}", "{}", "", true, false, nil, nil, fixedNow, fixedNow).
			AddRow("s2", "u2", "Bo", "Physics", "{}", "{}", "{}", "", true, false, "a9", matchDate, fixedNow, fixedNow))

	students, err := s.ListUnmatchedStudents(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Physics", students[1].AcademicField)
	assert.Equal(t, "a9", students[1].MatchedAdvisorID)
	require.NotNil(t, students[1].MatchDate)
	assert.Equal(t, matchDate, *students[1].MatchDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================================
// Advisors
// ==========================================

func TestGetAdvisor_RedisFailureFallsBackToDatabase(t *testing.T) {
	client, rmock := redismock.NewClientMock()
	s, mock := setupMockDB(t, WithCache(client, time.Minute))

	rmock.ExpectGet("profile:advisor:a1").SetErr(stderrors.New("connection refused"))
	mock.ExpectQuery("FROM advisors WHERE id").
		WithArgs("a1").
		WillReturnRows(advisorRows().AddRow(
			"a1", "u5", "Dr. Grace", "grace@uni.edu", "STAFF-7", "Computer Science",
			"{ml}", "{nlp}", 5, 2, "", true, fixedNow, fixedNow))

	a, err := s.GetAdvisor(context.Background(), "a1")

	require.NoError(t, err)
	assert.Equal(t, 3, a.CurrentLoad())
	assert.Equal(t, []string{"ml", "nlp"}, a.ResearchFocus())
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestCompleteAdvisorProfile_RejectsCapacityBelowLoad(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectQuery("FROM advisors WHERE user_id").
		WithArgs("u5").
		WillReturnRows(advisorRows().AddRow(
			"a1", "u5", "Dr. Grace", "", "", "Computer Science", "{}", "{}", 5, 1, "", false, fixedNow, fixedNow))

	_, err := s.CompleteAdvisorProfile(context.Background(), "u5", AdvisorProfileUpdate{MaxStudents: 3})

	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteAdvisorProfile_KeepsCapacityWhenZero(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectQuery("FROM advisors WHERE user_id").
		WithArgs("u5").
		WillReturnRows(advisorRows().AddRow(
			"a1", "u5", "Dr. Grace", "", "", "Computer Science", "{}", "{}", 4, 4, "", false, fixedNow, fixedNow))
	mock.ExpectQuery("UPDATE advisors").
		WithArgs("u5", "g@uni.edu", "STAFF-7", "Computer Science", sqlmock.AnyArg(), sqlmock.AnyArg(), 4, "bio", fixedNow).
		WillReturnRows(advisorRows().AddRow(
			"a1", "u5", "Dr. Grace", "g@uni.edu", "STAFF-7", "Computer Science", "{ml}", "{}", 4, 4, "bio", true, fixedNow, fixedNow))
	mock.ExpectExec("INSERT INTO audit_log").WillReturnResult(sqlmock.NewResult(1, 1))

	a, err := s.CompleteAdvisorProfile(context.Background(), "u5", AdvisorProfileUpdate{
		Email:             "g@uni.edu",
		StaffNumber:       "STAFF-7",
		ResearchInterests: []string{"ml"},
		Bio:               "bio",
	})

	require.NoError(t, err)
	assert.True(t, a.CompletedProfile)
	assert.Equal(t, 4, a.MaxStudents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func intPtr(i int) *int { return &i }

func TestUpdateAvailability(t *testing.T) {
	tests := []struct {
		name      string
		change    Availability
		wantMax   int
		wantSlots int
	}{
		{"raise capacity keeps load", Availability{MaxStudents: intPtr(8)}, 8, 6},
		{"explicit slots", Availability{AvailableSlots: intPtr(0)}, 5, 0},
		{"both", Availability{MaxStudents: intPtr(3), AvailableSlots: intPtr(3)}, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := setupMockDB(t)

			mock.ExpectBegin()
			mock.ExpectQuery("FROM advisors WHERE id = (.+) FOR UPDATE").
				WithArgs("a1").
				WillReturnRows(advisorRows().AddRow(
					"a1", "u5", "Dr. Grace", "", "", "Computer Science", "{}", "{}", 5, 3, "", true, fixedNow, fixedNow))
			mock.ExpectQuery("UPDATE advisors SET max_students").
				WithArgs("a1", tt.wantMax, tt.wantSlots, fixedNow).
				WillReturnRows(advisorRows().AddRow(
					"a1", "u5", "Dr. Grace", "", "", "Computer Science", "{}", "{}", tt.wantMax, tt.wantSlots, "", true, fixedNow, fixedNow))
			mock.ExpectCommit()

			a, err := s.UpdateAvailability(context.Background(), "a1", tt.change)

			require.NoError(t, err)
			assert.Equal(t, tt.wantMax, a.MaxStudents)
			assert.Equal(t, tt.wantSlots, a.AvailableSlots)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUpdateAvailability_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		change  Availability
		message string
	}{
		{"below load", Availability{MaxStudents: intPtr(1)}, "current load of 2"},
		{"negative max", Availability{MaxStudents: intPtr(-1)}, "must not be negative"},
		{"slots above max", Availability{AvailableSlots: intPtr(9)}, "exceeds maxStudents 5"},
		{"negative slots", Availability{AvailableSlots: intPtr(-1)}, "current load"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := setupMockDB(t)

			mock.ExpectBegin()
			mock.ExpectQuery("FOR UPDATE").
				WithArgs("a1").
				WillReturnRows(advisorRows().AddRow(
					"a1", "u5", "Dr. Grace", "", "", "Computer Science", "{}", "{}", 5, 3, "", true, fixedNow, fixedNow))
			mock.ExpectRollback()

			_, err := s.UpdateAvailability(context.Background(), "a1", tt.change)

			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeValidationFailed, stdErr.Code)
			assert.Contains(t, stdErr.Details, tt.message)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUpdateAvailability_UnknownAdvisor(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs("nope").WillReturnRows(advisorRows())
	mock.ExpectRollback()

	_, err := s.UpdateAvailability(context.Background(), "nope", Availability{MaxStudents: intPtr(3)})
	assert.True(t, errors.HasCode(err, errors.ErrCodeProfileNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================================
// Matches
// ==========================================

func TestCommitAssignment(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE students").
		WithArgs("s1", "a1", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET available_slots = available_slots - 1")).
		WithArgs("a1", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO matches").
		WithArgs(sqlmock.AnyArg(), "s1", "a1", "Shares same field", 71.43, "pending", fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectExec("INSERT INTO audit_log").WillReturnResult(sqlmock.NewResult(1, 1))

	rec, err := s.CommitAssignment(context.Background(), "s1", models.AdvisorMatch{
		AdvisorID:       "a1",
		MatchPercentage: 71.43,
		Reason:          "Shares same field",
	})

	require.NoError(t, err)
	assert.Equal(t, models.MatchPending, rec.Status)
	assert.Equal(t, models.Percentage(71.43), rec.Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitAssignment_CapacityConflict(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE students").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE advisors").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := s.CommitAssignment(context.Background(), "s1", models.AdvisorMatch{AdvisorID: "a1"})

	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeCapacityConflict, stdErr.Code)
	assert.Equal(t, "s1", stdErr.Metadata["studentId"])
	assert.True(t, stdErr.Retryable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitAssignment_AlreadyMatched(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE students").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := s.CommitAssignment(context.Background(), "s1", models.AdvisorMatch{AdvisorID: "a1"})

	assert.True(t, errors.HasCode(err, errors.ErrCodeAlreadyMatched))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitAssignment_RowsAffectedError(t *testing.T) {
	driverErr := stderrors.New("rows affected unavailable")

	tests := []struct {
		name  string
		setup func(mock sqlmock.Sqlmock)
	}{
		{
			name: "student update",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE students").WillReturnResult(sqlmock.NewErrorResult(driverErr))
			},
		},
		{
			name: "advisor update",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE students").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("UPDATE advisors").WillReturnResult(sqlmock.NewErrorResult(driverErr))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := setupMockDB(t)

			mock.ExpectBegin()
			tt.setup(mock)
			mock.ExpectRollback()

			_, err := s.CommitAssignment(context.Background(), "s1", models.AdvisorMatch{AdvisorID: "a1"})

			assert.True(t, errors.HasCode(err, errors.ErrCodeDatabaseInsertFailed))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReviewMatch(t *testing.T) {
	tests := []struct {
		name   string
		accept bool
		setup  func(mock sqlmock.Sqlmock)
		status models.MatchStatus
	}{
		{
			name:   "accept only updates the match",
			accept: true,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE matches SET status").
					WithArgs("m1", "accepted", fixedNow).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			status: models.MatchAccepted,
		},
		{
			name:   "reject frees the slot and the student",
			accept: false,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE matches SET status").
					WithArgs("m1", "rejected", fixedNow).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(regexp.QuoteMeta("LEAST(available_slots + 1, max_students)")).
					WithArgs("a1", fixedNow).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("UPDATE students").
					WithArgs("s1", "a1", fixedNow).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			status: models.MatchRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := setupMockDB(t)

			mock.ExpectBegin()
			mock.ExpectQuery("FROM matches WHERE id = (.+) FOR UPDATE").
				WithArgs("m1").
				WillReturnRows(matchRows().AddRow("m1", "s1", "a1", "reason", "71.43", "pending", fixedNow, nil))
			tt.setup(mock)
			mock.ExpectCommit()
			mock.ExpectExec("INSERT INTO audit_log").WillReturnResult(sqlmock.NewResult(1, 1))

			rec, err := s.ReviewMatch(context.Background(), "m1", "a1", tt.accept)

			require.NoError(t, err)
			assert.Equal(t, tt.status, rec.Status)
			require.NotNil(t, rec.ReviewedAt)
			assert.Equal(t, models.Percentage(71.43), rec.Score)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReviewMatch_Errors(t *testing.T) {
	tests := []struct {
		name      string
		rows      *sqlmock.Rows
		advisorID string
		code      errors.ErrorCode
	}{
		{"missing", matchRows(), "a1", errors.ErrCodeMatchNotFound},
		{"already reviewed", matchRows().AddRow("m1", "s1", "a1", "", "60", "accepted", fixedNow, fixedNow), "a1", errors.ErrCodeMatchAlreadyReviewed},
		{"other advisor", matchRows().AddRow("m1", "s1", "a1", "", "60", "pending", fixedNow, nil), "a2", "BUSINESS_RULE_VIOLATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := setupMockDB(t)

			mock.ExpectBegin()
			mock.ExpectQuery("FROM matches WHERE id").WithArgs("m1").WillReturnRows(tt.rows)
			mock.ExpectRollback()

			_, err := s.ReviewMatch(context.Background(), "m1", tt.advisorID, true)

			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCountMatchesByStatus(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT status, COUNT").
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 2).
			AddRow("accepted", 1))

	counts, err := s.CountMatchesByStatus(context.Background(), "a1")

	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.MatchPending])
	assert.Equal(t, 1, counts[models.MatchAccepted])
	assert.Equal(t, 0, counts[models.MatchRejected])
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================================
// Locker
// ==========================================

func TestLocker_ExclusiveUntilReleased(t *testing.T) {
	_, client := setupMiniredis(t)
	locker := NewLocker(client, time.Minute)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "batch")
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "batch")
	assert.True(t, errors.HasCode(err, errors.ErrCodeMatchingInProgress))

	other, err := locker.Acquire(ctx, "student:s1")
	require.NoError(t, err, "different scopes do not contend")
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx))

	again, err := locker.Acquire(ctx, "batch")
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestLocker_StaleReleaseKeepsNewOwner(t *testing.T) {
	mr, client := setupMiniredis(t)
	locker := NewLocker(client, time.Second)
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, "batch")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = locker.Acquire(ctx, "batch")
	require.NoError(t, err)

	require.NoError(t, stale(ctx))
	assert.True(t, mr.Exists("lock:matching:batch"))
}

func TestLocker_RedisDown(t *testing.T) {
	mr, client := setupMiniredis(t)
	mr.Close()

	_, err := NewLocker(client, time.Second).Acquire(context.Background(), "batch")
	assert.True(t, errors.HasCode(err, errors.ErrCodeCacheUnavailable))
}

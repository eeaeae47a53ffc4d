package store

import (
	"context"
	"database/sql"
	stderrors "errors"

	"advisor-match-workers/internal/common/errors"
	"advisor-match-workers/internal/models"

	"github.com/lib/pq"
)

const studentColumns = `id, user_id, name, academic_field, research_interests, career_goals,
	preferred_advisor_types, year_level, completed_profile, has_matched, matched_advisor_id,
	match_date, created_at, updated_at`

// StudentProfileUpdate carries the fields a student fills in when completing a profile.
type StudentProfileUpdate struct {
	AcademicField         string
	ResearchInterests     []string
	CareerGoals           []string
	PreferredAdvisorTypes []string
	YearLevel             string
}

func scanStudent(row rowScanner) (*models.StudentProfile, error) {
	var (
		p         models.StudentProfile
		advisorID sql.NullString
		matchDate sql.NullTime
	)
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.AcademicField,
		pq.Array(&p.ResearchInterests), pq.Array(&p.CareerGoals), pq.Array(&p.PreferredAdvisorTypes),
		&p.YearLevel, &p.CompletedProfile, &p.HasMatched, &advisorID, &matchDate,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.MatchedAdvisorID = advisorID.String
	p.MatchDate = timePtr(matchDate)
	p.ResearchInterests = emptyIfNil(p.ResearchInterests)
	p.CareerGoals = emptyIfNil(p.CareerGoals)
	p.PreferredAdvisorTypes = emptyIfNil(p.PreferredAdvisorTypes)
	return &p, nil
}

// GetStudent loads a student profile by profile id, consulting the cache first.
func (s *Store) GetStudent(ctx context.Context, id string) (*models.StudentProfile, error) {
	var cached models.StudentProfile
	if s.cacheGet(ctx, studentKey(id), &cached) {
		return &cached, nil
	}

	p, err := scanStudent(s.db.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewProfileNotFoundError("student", id)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_student", err)
	}

	s.cacheSet(ctx, studentKey(id), p)
	return p, nil
}

func (s *Store) GetStudentByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	p, err := scanStudent(s.db.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE user_id = $1`, userID))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewProfileNotFoundError("student", userID)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_student_by_user", err)
	}
	return p, nil
}

// CompleteStudentProfile stores the profile fields and marks the profile completed.
// Completing twice overwrites the earlier answers.
func (s *Store) CompleteStudentProfile(ctx context.Context, userID string, u StudentProfileUpdate) (*models.StudentProfile, error) {
	field := u.AcademicField
	if field == "" {
		field = models.DefaultAcademicField
	}

	p, err := scanStudent(s.db.QueryRowContext(ctx,
		`UPDATE students
		 SET academic_field = $2, research_interests = $3, career_goals = $4,
		     preferred_advisor_types = $5, year_level = $6, completed_profile = TRUE, updated_at = $7
		 WHERE user_id = $1
		 RETURNING `+studentColumns,
		userID, field,
		pq.Array(emptyIfNil(u.ResearchInterests)),
		pq.Array(emptyIfNil(u.CareerGoals)),
		pq.Array(emptyIfNil(u.PreferredAdvisorTypes)),
		u.YearLevel, s.now(),
	))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewProfileNotFoundError("student", userID)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("complete_student_profile", err)
	}

	s.cacheInvalidate(ctx, studentKey(p.ID))
	s.audit(ctx, "STUDENT_PROFILE_COMPLETED", "student", p.ID, map[string]interface{}{
		"interests": len(p.ResearchInterests),
	})
	return p, nil
}

// ListUnmatchedStudents returns completed, unmatched profiles oldest first. limit <= 0 means no limit.
func (s *Store) ListUnmatchedStudents(ctx context.Context, limit int) ([]models.StudentProfile, error) {
	query := `SELECT ` + studentColumns + ` FROM students
		WHERE completed_profile = TRUE AND has_matched = FALSE
		ORDER BY created_at, id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	return s.queryStudents(ctx, "list_unmatched_students", query, args...)
}

// ListStudentsByAdvisor returns the students currently assigned to an advisor.
func (s *Store) ListStudentsByAdvisor(ctx context.Context, advisorID string) ([]models.StudentProfile, error) {
	return s.queryStudents(ctx, "list_students_by_advisor",
		`SELECT `+studentColumns+` FROM students WHERE matched_advisor_id = $1 ORDER BY match_date, id`,
		advisorID)
}

func (s *Store) queryStudents(ctx context.Context, queryType, query string, args ...interface{}) ([]models.StudentProfile, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError(queryType, err)
	}
	defer rows.Close()

	students := []models.StudentProfile{}
	for rows.Next() {
		p, err := scanStudent(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError(queryType, err)
		}
		students = append(students, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError(queryType, err)
	}
	return students, nil
}

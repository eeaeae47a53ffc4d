package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"advisor-match-workers/internal/common/database"
	"advisor-match-workers/internal/common/errors"
	"advisor-match-workers/internal/models"

	"github.com/lib/pq"
)

const advisorColumns = `id, user_id, name, email, staff_number, department, research_interests,
	expertise_areas, max_students, available_slots, bio, completed_profile, created_at, updated_at`

// AdvisorProfileUpdate carries the fields an advisor fills in when completing a profile.
// A zero MaxStudents keeps the current capacity.
type AdvisorProfileUpdate struct {
	Email             string
	StaffNumber       string
	Department        string
	ResearchInterests []string
	ExpertiseAreas    []string
	MaxStudents       int
	Bio               string
}

func scanAdvisor(row rowScanner) (*models.AdvisorProfile, error) {
	var p models.AdvisorProfile
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Email, &p.StaffNumber, &p.Department,
		pq.Array(&p.ResearchInterests), pq.Array(&p.ExpertiseAreas),
		&p.MaxStudents, &p.AvailableSlots, &p.Bio, &p.CompletedProfile,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.ResearchInterests = emptyIfNil(p.ResearchInterests)
	p.ExpertiseAreas = emptyIfNil(p.ExpertiseAreas)
	return &p, nil
}

func (s *Store) GetAdvisor(ctx context.Context, id string) (*models.AdvisorProfile, error) {
	var cached models.AdvisorProfile
	if s.cacheGet(ctx, advisorKey(id), &cached) {
		return &cached, nil
	}

	p, err := scanAdvisor(s.db.QueryRowContext(ctx,
		`SELECT `+advisorColumns+` FROM advisors WHERE id = $1`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewProfileNotFoundError("advisor", id)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_advisor", err)
	}

	s.cacheSet(ctx, advisorKey(id), p)
	return p, nil
}

func (s *Store) GetAdvisorByUserID(ctx context.Context, userID string) (*models.AdvisorProfile, error) {
	p, err := scanAdvisor(s.db.QueryRowContext(ctx,
		`SELECT `+advisorColumns+` FROM advisors WHERE user_id = $1`, userID))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewProfileNotFoundError("advisor", userID)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_advisor_by_user", err)
	}
	return p, nil
}

// CompleteAdvisorProfile stores the profile fields and marks the profile completed.
// Changing MaxStudents keeps the current load, so available_slots moves by the same delta.
// Capacity below the current load is rejected.
func (s *Store) CompleteAdvisorProfile(ctx context.Context, userID string, u AdvisorProfileUpdate) (*models.AdvisorProfile, error) {
	current, err := s.GetAdvisorByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	maxStudents := u.MaxStudents
	if maxStudents <= 0 {
		maxStudents = current.MaxStudents
	}
	load := current.CurrentLoad()
	if maxStudents < load {
		return nil, errors.NewValidationError(
			fmt.Sprintf("maxStudents %d is below the current load of %d", maxStudents, load))
	}
	department := u.Department
	if department == "" {
		department = models.DefaultAcademicField
	}

	p, err := scanAdvisor(s.db.QueryRowContext(ctx,
		`UPDATE advisors
		 SET email = $2, staff_number = $3, department = $4, research_interests = $5,
		     expertise_areas = $6, max_students = $7, available_slots = $7 - (max_students - available_slots),
		     bio = $8, completed_profile = TRUE, updated_at = $9
		 WHERE user_id = $1 AND max_students - available_slots <= $7
		 RETURNING `+advisorColumns,
		userID, u.Email, u.StaffNumber, department,
		pq.Array(emptyIfNil(u.ResearchInterests)),
		pq.Array(emptyIfNil(u.ExpertiseAreas)),
		maxStudents, u.Bio, s.now(),
	))
	if stderrors.Is(err, sql.ErrNoRows) {
		// load grew between the read and the update
		return nil, errors.NewCapacityConflictError(current.ID)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("complete_advisor_profile", err)
	}

	s.cacheInvalidate(ctx, advisorKey(p.ID))
	s.audit(ctx, "ADVISOR_PROFILE_COMPLETED", "advisor", p.ID, map[string]interface{}{
		"maxStudents": p.MaxStudents,
	})
	return p, nil
}

// Availability changes an advisor's capacity. Nil fields keep their current value;
// when only MaxStudents is set the current load is preserved.
type Availability struct {
	MaxStudents    *int
	AvailableSlots *int
}

// UpdateAvailability applies a under a row lock. The result must satisfy
// 0 <= available_slots <= max_students.
func (s *Store) UpdateAvailability(ctx context.Context, advisorID string, a Availability) (*models.AdvisorProfile, error) {
	var updated *models.AdvisorProfile

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		current, err := scanAdvisor(tx.QueryRowContext(ctx,
			`SELECT `+advisorColumns+` FROM advisors WHERE id = $1 FOR UPDATE`, advisorID))
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NewProfileNotFoundError("advisor", advisorID)
		}
		if err != nil {
			return err
		}

		maxStudents := current.MaxStudents
		if a.MaxStudents != nil {
			maxStudents = *a.MaxStudents
		}
		slots := maxStudents - current.CurrentLoad()
		if a.AvailableSlots != nil {
			slots = *a.AvailableSlots
		}

		switch {
		case maxStudents < 0:
			return errors.NewValidationError("maxStudents must not be negative")
		case slots < 0:
			return errors.NewValidationError(fmt.Sprintf(
				"maxStudents %d is below the current load of %d", maxStudents, current.CurrentLoad()))
		case slots > maxStudents:
			return errors.NewValidationError(fmt.Sprintf(
				"availableSlots %d exceeds maxStudents %d", slots, maxStudents))
		}

		updated, err = scanAdvisor(tx.QueryRowContext(ctx,
			`UPDATE advisors SET max_students = $2, available_slots = $3, updated_at = $4
			 WHERE id = $1
			 RETURNING `+advisorColumns,
			advisorID, maxStudents, slots, s.now(),
		))
		return err
	})
	if err != nil {
		if stdErr, ok := errors.AsStandardError(err); ok {
			return nil, stdErr
		}
		return nil, errors.NewQueryExecutionFailedError("update_advisor_availability", err)
	}

	s.cacheInvalidate(ctx, advisorKey(advisorID))
	return updated, nil
}

// ListCompletedAdvisors returns every completed advisor profile, full or not, in a stable order.
func (s *Store) ListCompletedAdvisors(ctx context.Context) ([]models.AdvisorProfile, error) {
	return s.queryAdvisors(ctx, "list_completed_advisors",
		`SELECT `+advisorColumns+` FROM advisors WHERE completed_profile = TRUE ORDER BY created_at, id`)
}

// ListAdvisorsByIDs returns the advisors with the given ids in an unspecified order.
func (s *Store) ListAdvisorsByIDs(ctx context.Context, ids []string) ([]models.AdvisorProfile, error) {
	if len(ids) == 0 {
		return []models.AdvisorProfile{}, nil
	}
	return s.queryAdvisors(ctx, "list_advisors_by_ids",
		`SELECT `+advisorColumns+` FROM advisors WHERE id = ANY($1)`, pq.Array(ids))
}

func (s *Store) queryAdvisors(ctx context.Context, queryType, query string, args ...interface{}) ([]models.AdvisorProfile, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError(queryType, err)
	}
	defer rows.Close()

	advisors := []models.AdvisorProfile{}
	for rows.Next() {
		p, err := scanAdvisor(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError(queryType, err)
		}
		advisors = append(advisors, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError(queryType, err)
	}
	return advisors, nil
}

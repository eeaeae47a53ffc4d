package store

import (
	"context"
	"database/sql"
	stderrors "errors"

	"advisor-match-workers/internal/common/database"
	"advisor-match-workers/internal/common/errors"
	"advisor-match-workers/internal/models"

	"github.com/google/uuid"
)

const matchColumns = `id, student_id, advisor_id, match_reason, match_score, status, created_at, reviewed_at`

func scanMatch(row rowScanner) (*models.MatchRecord, error) {
	var (
		m          models.MatchRecord
		score      float64
		status     string
		reviewedAt sql.NullTime
	)
	if err := row.Scan(&m.ID, &m.StudentID, &m.AdvisorID, &m.Reason, &score, &status, &m.CreatedAt, &reviewedAt); err != nil {
		return nil, err
	}
	m.Score = models.Percentage(score)
	m.Status = models.MatchStatus(status)
	m.ReviewedAt = timePtr(reviewedAt)
	return &m, nil
}

// CommitAssignment persists one matcher decision. The student must still be unmatched
// and the advisor must still have a free slot when the transaction runs; otherwise
// ALREADY_MATCHED or CAPACITY_CONFLICT is returned and nothing is written.
func (s *Store) CommitAssignment(ctx context.Context, studentID string, match models.AdvisorMatch) (*models.MatchRecord, error) {
	now := s.now()
	rec := &models.MatchRecord{
		ID:        uuid.New().String(),
		StudentID: studentID,
		AdvisorID: match.AdvisorID,
		Reason:    match.Reason,
		Score:     match.MatchPercentage,
		Status:    models.MatchPending,
		CreatedAt: now,
	}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE students
			 SET has_matched = TRUE, matched_advisor_id = $2, match_date = $3, updated_at = $3
			 WHERE id = $1 AND has_matched = FALSE`,
			studentID, match.AdvisorID, now,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.NewAlreadyMatchedError(studentID)
		}

		res, err = tx.ExecContext(ctx,
			`UPDATE advisors
			 SET available_slots = available_slots - 1, updated_at = $2
			 WHERE id = $1 AND available_slots > 0`,
			match.AdvisorID, now,
		)
		if err != nil {
			return err
		}
		if n, err = res.RowsAffected(); err != nil {
			return err
		}
		if n == 0 {
			return errors.NewCapacityConflictError(match.AdvisorID).WithMetadata("studentId", studentID)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO matches (id, student_id, advisor_id, match_reason, match_score, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rec.ID, rec.StudentID, rec.AdvisorID, rec.Reason, float64(rec.Score), string(rec.Status), now,
		)
		return err
	})
	if err != nil {
		if stdErr, ok := errors.AsStandardError(err); ok {
			return nil, stdErr
		}
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	s.cacheInvalidate(ctx, studentKey(studentID), advisorKey(match.AdvisorID))
	s.audit(ctx, "MATCH_CREATED", "match", rec.ID, map[string]interface{}{
		"studentId": studentID,
		"advisorId": match.AdvisorID,
		"score":     rec.Score.String(),
	})
	return rec, nil
}

// ReviewMatch accepts or rejects a pending match owned by advisorID. Rejecting frees
// the advisor's slot and returns the student to the unmatched pool.
func (s *Store) ReviewMatch(ctx context.Context, matchID, advisorID string, accept bool) (*models.MatchRecord, error) {
	var rec *models.MatchRecord
	now := s.now()

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		rec, err = scanMatch(tx.QueryRowContext(ctx,
			`SELECT `+matchColumns+` FROM matches WHERE id = $1 FOR UPDATE`, matchID))
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NewMatchNotFoundError(matchID)
		}
		if err != nil {
			return err
		}
		if rec.AdvisorID != advisorID {
			return errors.NewBusinessRuleError("match belongs to another advisor", "matchId: "+matchID)
		}
		if rec.Status != models.MatchPending {
			return errors.NewMatchAlreadyReviewedError(matchID, string(rec.Status))
		}

		rec.Status = models.MatchRejected
		if accept {
			rec.Status = models.MatchAccepted
		}
		rec.ReviewedAt = &now

		if _, err := tx.ExecContext(ctx,
			`UPDATE matches SET status = $2, reviewed_at = $3 WHERE id = $1`,
			matchID, string(rec.Status), now,
		); err != nil {
			return err
		}
		if accept {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE advisors
			 SET available_slots = LEAST(available_slots + 1, max_students), updated_at = $2
			 WHERE id = $1`,
			rec.AdvisorID, now,
		); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE students
			 SET has_matched = FALSE, matched_advisor_id = NULL, match_date = NULL, updated_at = $3
			 WHERE id = $1 AND matched_advisor_id = $2`,
			rec.StudentID, rec.AdvisorID, now,
		)
		return err
	})
	if err != nil {
		if stdErr, ok := errors.AsStandardError(err); ok {
			return nil, stdErr
		}
		return nil, errors.NewQueryExecutionFailedError("review_match", err)
	}

	s.cacheInvalidate(ctx, studentKey(rec.StudentID), advisorKey(rec.AdvisorID))
	s.audit(ctx, "MATCH_REVIEWED", "match", rec.ID, map[string]interface{}{
		"status": rec.Status,
	})
	return rec, nil
}

func (s *Store) GetMatch(ctx context.Context, id string) (*models.MatchRecord, error) {
	m, err := scanMatch(s.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = $1`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewMatchNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_match", err)
	}
	return m, nil
}

func (s *Store) ListMatchesByStudent(ctx context.Context, studentID string) ([]models.MatchRecord, error) {
	return s.queryMatches(ctx, "list_matches_by_student",
		`SELECT `+matchColumns+` FROM matches WHERE student_id = $1 ORDER BY created_at DESC, id`, studentID)
}

// ListMatchesByAdvisor filters by status unless status is empty.
func (s *Store) ListMatchesByAdvisor(ctx context.Context, advisorID string, status models.MatchStatus) ([]models.MatchRecord, error) {
	if status == "" {
		return s.queryMatches(ctx, "list_matches_by_advisor",
			`SELECT `+matchColumns+` FROM matches WHERE advisor_id = $1 ORDER BY created_at DESC, id`, advisorID)
	}
	return s.queryMatches(ctx, "list_matches_by_advisor",
		`SELECT `+matchColumns+` FROM matches WHERE advisor_id = $1 AND status = $2 ORDER BY created_at DESC, id`,
		advisorID, string(status))
}

// CountMatchesByStatus returns per-status counts for one advisor. Statuses without
// matches are reported as zero.
func (s *Store) CountMatchesByStatus(ctx context.Context, advisorID string) (map[models.MatchStatus]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM matches WHERE advisor_id = $1 GROUP BY status`, advisorID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("count_matches", err)
	}
	defer rows.Close()

	counts := map[models.MatchStatus]int{
		models.MatchPending:  0,
		models.MatchAccepted: 0,
		models.MatchRejected: 0,
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, errors.NewQueryExecutionFailedError("count_matches", err)
		}
		counts[models.MatchStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("count_matches", err)
	}
	return counts, nil
}

func (s *Store) queryMatches(ctx context.Context, queryType, query string, args ...interface{}) ([]models.MatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError(queryType, err)
	}
	defer rows.Close()

	matches := []models.MatchRecord{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError(queryType, err)
		}
		matches = append(matches, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError(queryType, err)
	}
	return matches, nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"advisor-match-workers/internal/common/database"
	"advisor-match-workers/internal/common/errors"
	"advisor-match-workers/internal/models"

	"github.com/google/uuid"
)

const userColumns = `id, name, identifier, password_hash, role, created_at, updated_at`

// RegisterUser inserts the account and its empty role profile in one transaction.
// It fills user.ID and the timestamps and returns the profile id.
func (s *Store) RegisterUser(ctx context.Context, user *models.User, advisorCapacity int) (string, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE identifier = $1)`,
		user.Identifier,
	).Scan(&exists)
	if err != nil {
		return "", errors.NewQueryExecutionFailedError("check_user_exists", err)
	}
	if exists {
		return "", errors.NewUserAlreadyExistsError(user.Identifier)
	}

	if advisorCapacity <= 0 {
		advisorCapacity = models.DefaultAdvisorCapacity
	}

	now := s.now()
	user.ID = uuid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	profileID := uuid.New().String()

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, name, identifier, password_hash, role, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			user.ID, user.Name, user.Identifier, user.PasswordHash, string(user.Role), now, now,
		); err != nil {
			return err
		}

		switch user.Role {
		case models.RoleStudent:
			_, err := tx.ExecContext(ctx,
				`INSERT INTO students (id, user_id, name, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5)`,
				profileID, user.ID, user.Name, now, now,
			)
			return err
		case models.RoleAdvisor:
			_, err := tx.ExecContext(ctx,
				`INSERT INTO advisors (id, user_id, name, max_students, available_slots, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $4, $5, $6)`,
				profileID, user.ID, user.Name, advisorCapacity, now, now,
			)
			return err
		default:
			return fmt.Errorf("unsupported role %q", user.Role)
		}
	})
	if err != nil {
		return "", errors.NewDatabaseInsertFailedError(err)
	}

	s.audit(ctx, "USER_REGISTERED", "user", user.ID, map[string]interface{}{
		"role":      user.Role,
		"profileId": profileID,
	})
	return profileID, nil
}

// FindUserByIdentifier returns nil, nil when no account uses the identifier.
func (s *Store) FindUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE identifier = $1`, identifier)
	return scanUser(row)
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var role string
	err := row.Scan(&u.ID, &u.Name, &u.Identifier, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_user", err)
	}
	u.Role = models.Role(role)
	return &u, nil
}

// audit is non-critical: failures are logged and swallowed.
func (s *Store) audit(ctx context.Context, eventType, resourceType, resourceID string, details map[string]interface{}) {
	payload, _ := json.Marshal(details)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		eventType, resourceType, resourceID, payload, s.now(),
	)
	if err != nil {
		s.logger.Warn("failed to create audit log", map[string]interface{}{
			"eventType":  eventType,
			"resourceId": resourceID,
			"error":      err.Error(),
		})
	}
}

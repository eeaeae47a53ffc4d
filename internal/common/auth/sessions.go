package auth

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"advisor-match-workers/internal/common/errors"
	"advisor-match-workers/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultSessionTTL = 24 * time.Hour

// SessionManager stores sessions under session:<userId>:<sessionId>.
type SessionManager struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionManager(client *redis.Client, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{client: client, ttl: ttl, now: time.Now}
}

func sessionKey(userID, sessionID string) string {
	return fmt.Sprintf("session:%s:%s", userID, sessionID)
}

func (m *SessionManager) Create(ctx context.Context, userID string, role models.Role) (*models.Session, error) {
	now := m.now().UTC()
	session := &models.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	if err := m.client.Set(ctx, sessionKey(userID, session.ID), data, m.ttl).Err(); err != nil {
		return nil, errors.NewCacheUnavailableError(err)
	}
	return session, nil
}

func (m *SessionManager) Get(ctx context.Context, userID, sessionID string) (*models.Session, error) {
	raw, err := m.client.Get(ctx, sessionKey(userID, sessionID)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, errors.NewSessionNotFoundError(sessionID)
	}
	if err != nil {
		return nil, errors.NewCacheUnavailableError(err)
	}

	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("decode session: %w", err))
	}
	return &session, nil
}

// Delete removes one session and returns how many keys were removed (0 or 1).
func (m *SessionManager) Delete(ctx context.Context, userID, sessionID string) (int, error) {
	n, err := m.client.Del(ctx, sessionKey(userID, sessionID)).Result()
	if err != nil {
		return 0, errors.NewCacheUnavailableError(err)
	}
	return int(n), nil
}

// DeleteAll removes every session of userID.
func (m *SessionManager) DeleteAll(ctx context.Context, userID string) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	pattern := sessionKey(userID, "*")
	for {
		keys, next, err := m.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return removed, errors.NewCacheUnavailableError(err)
		}
		if len(keys) > 0 {
			n, err := m.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, errors.NewCacheUnavailableError(err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

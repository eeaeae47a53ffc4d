package auth

import (
	"context"
	"testing"
	"time"

	"advisor-match-workers/internal/common/errors"
	"advisor-match-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupSessions(t *testing.T) (*miniredis.Miniredis, *SessionManager) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewSessionManager(client, time.Hour)
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret-pass"))
}

func TestHashPassword_InvalidCost(t *testing.T) {
	_, err := HashPassword("pw", 99)
	assert.Error(t, err)
}

func TestSessionManager_CreateGet(t *testing.T) {
	mr, sm := setupSessions(t)
	ctx := context.Background()

	session, err := sm.Create(ctx, "u1", models.RoleAdvisor)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL("session:u1:"+session.ID))

	got, err := sm.Get(ctx, "u1", session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdvisor, got.Role)
	assert.False(t, got.IsExpired())

	_, err = sm.Get(ctx, "u2", session.ID)
	assert.True(t, errors.HasCode(err, errors.ErrCodeSessionNotFound))
}

func TestSessionManager_Expiry(t *testing.T) {
	mr, sm := setupSessions(t)
	ctx := context.Background()

	session, err := sm.Create(ctx, "u1", models.RoleStudent)
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = sm.Get(ctx, "u1", session.ID)
	assert.True(t, errors.HasCode(err, errors.ErrCodeSessionNotFound))
}

func TestSessionManager_Delete(t *testing.T) {
	_, sm := setupSessions(t)
	ctx := context.Background()

	a, _ := sm.Create(ctx, "u1", models.RoleStudent)
	_, _ = sm.Create(ctx, "u1", models.RoleStudent)
	_, _ = sm.Create(ctx, "u1", models.RoleStudent)
	other, _ := sm.Create(ctx, "u10", models.RoleStudent)

	n, err := sm.Delete(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = sm.Delete(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = sm.DeleteAll(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = sm.Get(ctx, "u10", other.ID)
	assert.NoError(t, err, "pattern must not match other users sharing a prefix")
}

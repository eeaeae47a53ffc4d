// Package store persists accounts, profiles and matches in PostgreSQL, with a Redis
// read-through cache for profiles.
package store

import (
	"database/sql"
	"time"

	"advisor-match-workers/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// Store is safe for concurrent use.
type Store struct {
	db     *sql.DB
	cache  *ProfileCache
	logger logger.Logger
	now    func() time.Time
}

type Option func(*Store)

// WithCache enables profile caching in Redis.
func WithCache(client *redis.Client, ttl time.Duration) Option {
	return func(s *Store) {
		if client != nil {
			s.cache = NewProfileCache(client, ttl)
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(db *sql.DB, log logger.Logger, opts ...Option) *Store {
	s := &Store{
		db:     db,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the pool for callers that need their own transaction.
func (s *Store) DB() *sql.DB {
	return s.db
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

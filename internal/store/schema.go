package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied statement by statement; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		name          TEXT NOT NULL,
		identifier    TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL CHECK (role IN ('student', 'advisor')),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		id                      UUID PRIMARY KEY,
		user_id                 UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		name                    TEXT NOT NULL,
		academic_field          TEXT NOT NULL DEFAULT 'Computer Science',
		research_interests      TEXT[] NOT NULL DEFAULT '{}',
		career_goals            TEXT[] NOT NULL DEFAULT '{}',
		preferred_advisor_types TEXT[] NOT NULL DEFAULT '{}',
		year_level              TEXT NOT NULL DEFAULT '',
		completed_profile       BOOLEAN NOT NULL DEFAULT FALSE,
		has_matched             BOOLEAN NOT NULL DEFAULT FALSE,
		matched_advisor_id      UUID,
		match_date              TIMESTAMPTZ,
		created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at              TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS advisors (
		id                 UUID PRIMARY KEY,
		user_id            UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		name               TEXT NOT NULL,
		email              TEXT NOT NULL DEFAULT '',
		staff_number       TEXT NOT NULL DEFAULT '',
		department         TEXT NOT NULL DEFAULT 'Computer Science',
		research_interests TEXT[] NOT NULL DEFAULT '{}',
		expertise_areas    TEXT[] NOT NULL DEFAULT '{}',
		max_students       INT NOT NULL DEFAULT 5 CHECK (max_students >= 0),
		available_slots    INT NOT NULL DEFAULT 5 CHECK (available_slots >= 0 AND available_slots <= max_students),
		bio                TEXT NOT NULL DEFAULT '',
		completed_profile  BOOLEAN NOT NULL DEFAULT FALSE,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id           UUID PRIMARY KEY,
		student_id   UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
		advisor_id   UUID NOT NULL REFERENCES advisors(id) ON DELETE CASCADE,
		match_reason TEXT NOT NULL DEFAULT '',
		match_score  NUMERIC(5,2) NOT NULL DEFAULT 0,
		status       TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'rejected')),
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		reviewed_at  TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id            BIGSERIAL PRIMARY KEY,
		event_type    TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		resource_id   TEXT NOT NULL,
		details       JSONB,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_student ON matches(student_id)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_advisor ON matches(advisor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_students_unmatched ON students(completed_profile, has_matched)`,
}

// Migrate creates the tables and indexes the store needs.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d: %w", i+1, err)
		}
	}
	return nil
}

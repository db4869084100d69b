package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		roles TEXT[] NOT NULL DEFAULT '{}',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		email_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		google_subject_id TEXT UNIQUE,
		profile_picture TEXT,
		failed_login_count INTEGER NOT NULL DEFAULT 0,
		lockout_end TIMESTAMPTZ,
		refresh_token TEXT,
		refresh_token_expires_at TIMESTAMPTZ,
		verification_token TEXT,
		verification_token_expires_at TIMESTAMPTZ,
		reset_token TEXT,
		reset_token_expires_at TIMESTAMPTZ,
		last_login_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS audit_events (
		id BIGSERIAL PRIMARY KEY,
		occurred_at TIMESTAMPTZ NOT NULL,
		action TEXT NOT NULL,
		actor_id TEXT,
		actor_name TEXT,
		entity_type TEXT,
		entity_id TEXT,
		entity_name TEXT,
		description TEXT,
		old_values JSONB,
		new_values JSONB,
		ip TEXT,
		user_agent TEXT,
		success BOOLEAN NOT NULL,
		error TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_events_actor ON audit_events (actor_id, occurred_at)`,
}

// Migrate applies the schema. Statements are idempotent so startup can
// always run it.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ensureSchema creates the tables on first boot. Statements are idempotent so
// restarting against an initialized database is a no-op.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS app_user (
		id            BIGSERIAL PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		username      TEXT NOT NULL,
		password_hash TEXT,
		is_verified   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS refresh_token (
		id         UUID PRIMARY KEY,
		user_id    BIGINT NOT NULL REFERENCES app_user(id) ON DELETE CASCADE,
		token_hash TEXT NOT NULL UNIQUE,
		issued_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMPTZ NOT NULL,
		revoked_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_token_user ON refresh_token (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_token_expires ON refresh_token (expires_at)`,

	`CREATE TABLE IF NOT EXISTS otp_challenge (
		id          UUID PRIMARY KEY,
		email       TEXT NOT NULL,
		purpose     TEXT NOT NULL,
		code_hash   TEXT NOT NULL,
		expires_at  TIMESTAMPTZ NOT NULL,
		consumed_at TIMESTAMPTZ,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_otp_challenge_lookup ON otp_challenge (email, purpose)`,
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maticastro/authgate/internal/domain/repository"
)

type tokenRepo struct{ pool *pgxpool.Pool }

const tokenColumns = `id, user_id, token_hash, issued_at, expires_at, revoked_at`

func scanToken(row pgx.Row) (*repository.RefreshToken, error) {
	var t repository.RefreshToken
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.IssuedAt, &t.ExpiresAt, &t.RevokedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *tokenRepo) Create(ctx context.Context, input repository.CreateRefreshTokenInput) error {
	const query = `
		INSERT INTO refresh_token (id, user_id, token_hash, issued_at, expires_at)
		VALUES ($1, $2, $3, NOW(), $4)
	`
	_, err := r.pool.Exec(ctx, query, input.ID, input.UserID, input.TokenHash, input.ExpiresAt)
	if err != nil && isUniqueViolation(err) {
		return repository.ErrConflict
	}
	return err
}

func (r *tokenRepo) GetByHash(ctx context.Context, tokenHash string) (*repository.RefreshToken, error) {
	const query = `SELECT ` + tokenColumns + ` FROM refresh_token WHERE token_hash = $1`
	return scanToken(r.pool.QueryRow(ctx, query, tokenHash))
}

// ConsumeByHash is the rotation primitive: the conditional delete returns the
// row only to exactly one of any concurrent callers presenting the same token.
func (r *tokenRepo) ConsumeByHash(ctx context.Context, tokenHash string) (*repository.RefreshToken, error) {
	const query = `
		DELETE FROM refresh_token
		WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > NOW()
		RETURNING ` + tokenColumns + `
	`
	return scanToken(r.pool.QueryRow(ctx, query, tokenHash))
}

func (r *tokenRepo) DeleteByHash(ctx context.Context, tokenHash string) error {
	const query = `DELETE FROM refresh_token WHERE token_hash = $1`
	_, err := r.pool.Exec(ctx, query, tokenHash)
	return err
}

func (r *tokenRepo) DeleteAllByUser(ctx context.Context, userID int64) (int, error) {
	const query = `DELETE FROM refresh_token WHERE user_id = $1`
	tag, err := r.pool.Exec(ctx, query, userID)
	return int(tag.RowsAffected()), err
}

func (r *tokenRepo) DeleteExpiredByUser(ctx context.Context, userID int64) (int, error) {
	const query = `DELETE FROM refresh_token WHERE user_id = $1 AND expires_at <= NOW()`
	tag, err := r.pool.Exec(ctx, query, userID)
	return int(tag.RowsAffected()), err
}

func (r *tokenRepo) DeleteExpired(ctx context.Context) (int, error) {
	const query = `DELETE FROM refresh_token WHERE expires_at <= NOW()`
	tag, err := r.pool.Exec(ctx, query)
	return int(tag.RowsAffected()), err
}

func (r *tokenRepo) HasLiveByUser(ctx context.Context, userID int64) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM refresh_token
			WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > NOW()
		)
	`
	var exists bool
	err := r.pool.QueryRow(ctx, query, userID).Scan(&exists)
	return exists, err
}

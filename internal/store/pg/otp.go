package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maticastro/authgate/internal/domain/repository"
)

type otpRepo struct{ pool *pgxpool.Pool }

// Create supersedes any earlier unconsumed challenge for the same
// (email, purpose): only the latest code is ever valid.
func (r *otpRepo) Create(ctx context.Context, input repository.CreateOtpInput) (*repository.OtpChallenge, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE otp_challenge SET consumed_at = NOW()
		 WHERE email = lower($1) AND purpose = $2 AND consumed_at IS NULL`,
		input.Email, input.Purpose)
	if err != nil {
		return nil, err
	}

	ch := &repository.OtpChallenge{
		ID:        input.ID,
		Email:     input.Email,
		Purpose:   input.Purpose,
		CodeHash:  input.CodeHash,
		ExpiresAt: input.ExpiresAt,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO otp_challenge (id, email, purpose, code_hash, expires_at)
		 VALUES ($1, lower($2), $3, $4, $5)
		 RETURNING created_at`,
		input.ID, input.Email, input.Purpose, input.CodeHash, input.ExpiresAt,
	).Scan(&ch.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ch, nil
}

// Consume is a compare-and-set: the match check and the consumed flag are one
// statement, so concurrent verifies of the same code succeed at most once.
func (r *otpRepo) Consume(ctx context.Context, email string, purpose repository.OtpPurpose, codeHash string) error {
	const query = `
		UPDATE otp_challenge SET consumed_at = NOW()
		WHERE email = lower($1) AND purpose = $2 AND code_hash = $3
		  AND consumed_at IS NULL AND expires_at > NOW()
		RETURNING id
	`
	var id string
	err := r.pool.QueryRow(ctx, query, email, purpose, codeHash).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

func (r *otpRepo) DeleteExpired(ctx context.Context) (int, error) {
	const query = `DELETE FROM otp_challenge WHERE expires_at <= NOW()`
	tag, err := r.pool.Exec(ctx, query)
	return int(tag.RowsAffected()), err
}

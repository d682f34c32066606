// Package pg implements the Postgres store on top of pgxpool.
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maticastro/authgate/internal/domain/repository"
	"github.com/maticastro/authgate/internal/store"
)

func init() {
	store.Register("postgres", open)
}

type pgStore struct {
	pool   *pgxpool.Pool
	users  *userRepo
	tokens *tokenRepo
	otps   *otpRepo
}

func open(ctx context.Context, cfg store.Config) (store.Store, error) {
	if cfg.DSN == "" {
		return nil, repository.ErrNoDatabase
	}

	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}

	if err := ensureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: schema: %w", err)
	}

	return &pgStore{
		pool:   pool,
		users:  &userRepo{pool: pool},
		tokens: &tokenRepo{pool: pool},
		otps:   &otpRepo{pool: pool},
	}, nil
}

func (s *pgStore) Users() repository.UserRepository   { return s.users }
func (s *pgStore) Tokens() repository.TokenRepository { return s.tokens }
func (s *pgStore) Otps() repository.OtpRepository     { return s.otps }

func (s *pgStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }
func (s *pgStore) Close()                         { s.pool.Close() }

// isUniqueViolation reports whether err is a 23505 unique constraint error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ─── UserRepository ───

type userRepo struct{ pool *pgxpool.Pool }

const userColumns = `id, email, username, password_hash, is_verified, created_at, updated_at`

func scanUser(row pgx.Row) (*repository.User, error) {
	var u repository.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	const query = `SELECT ` + userColumns + ` FROM app_user WHERE email = lower($1)`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepo) GetByID(ctx context.Context, userID int64) (*repository.User, error) {
	const query = `SELECT ` + userColumns + ` FROM app_user WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, userID))
}

func (r *userRepo) Create(ctx context.Context, input repository.CreateUserInput) (*repository.User, error) {
	const query = `
		INSERT INTO app_user (email, username, password_hash, is_verified)
		VALUES (lower($1), $2, $3, $4)
		RETURNING ` + userColumns + `
	`
	u, err := scanUser(r.pool.QueryRow(ctx, query,
		input.Email, input.Username, input.PasswordHash, input.IsVerified))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrConflict
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepo) UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error {
	const query = `UPDATE app_user SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, userID, newHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateEmailAndPassword commits the email-change flow: both credentials and
// the session revocation land in one transaction so a failure applies nothing.
func (r *userRepo) UpdateEmailAndPassword(ctx context.Context, userID int64, newEmail, newHash string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE app_user SET email = lower($2), password_hash = $3, updated_at = NOW() WHERE id = $1`,
		userID, newEmail, newHash)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM refresh_token WHERE user_id = $1`, userID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

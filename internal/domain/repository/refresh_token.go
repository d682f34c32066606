package repository

import (
	"context"
	"time"
)

// RefreshToken is a server-side session record. Only the SHA-256 hash of the
// opaque value is stored; the raw value travels exclusively via cookie.
type RefreshToken struct {
	ID        string
	UserID    int64
	TokenHash string
	IssuedAt  time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Live reports whether the token still authorizes a session at the given time.
func (t *RefreshToken) Live(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// CreateRefreshTokenInput contains the data to persist a refresh token.
type CreateRefreshTokenInput struct {
	ID        string
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
}

// TokenRepository defines persistence operations on refresh tokens.
type TokenRepository interface {
	// Create inserts a new refresh token row.
	Create(ctx context.Context, input CreateRefreshTokenInput) error

	// GetByHash finds a token by its hash. Returns ErrNotFound if absent.
	GetByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// ConsumeByHash deletes the token only if it is still live (not revoked,
	// not expired). Returns ErrNotFound when zero rows were deleted, which is
	// what makes concurrent rotation of the same token single-success.
	ConsumeByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// DeleteByHash removes the token unconditionally. Missing rows are not an
	// error; logout is idempotent.
	DeleteByHash(ctx context.Context, tokenHash string) error

	// DeleteAllByUser removes every refresh token of the user and returns the
	// number of deleted rows. Used for forced re-authentication.
	DeleteAllByUser(ctx context.Context, userID int64) (int, error)

	// DeleteExpiredByUser removes the user's expired tokens (login-time
	// housekeeping, best effort).
	DeleteExpiredByUser(ctx context.Context, userID int64) (int, error)

	// DeleteExpired removes all expired tokens (cleanup sweep).
	DeleteExpired(ctx context.Context) (int, error)

	// HasLiveByUser reports whether at least one unrevoked, unexpired token
	// exists for the user. Queried on every guarded request.
	HasLiveByUser(ctx context.Context, userID int64) (bool, error)
}

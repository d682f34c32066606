package repository

import (
	"context"
	"time"
)

// OtpPurpose scopes a one-time code to the flow that requested it.
type OtpPurpose string

const (
	OtpPasswordReset      OtpPurpose = "password-reset"
	OtpRegistration       OtpPurpose = "registration"
	OtpEmailChangeCurrent OtpPurpose = "email-change-current"
	OtpEmailChangeNew     OtpPurpose = "email-change-new"
)

// Valid reports whether the purpose is one of the known flows.
func (p OtpPurpose) Valid() bool {
	switch p {
	case OtpPasswordReset, OtpRegistration, OtpEmailChangeCurrent, OtpEmailChangeNew:
		return true
	}
	return false
}

// OtpChallenge is a stored one-time code. Only the hash of the code is kept.
type OtpChallenge struct {
	ID         string
	Email      string
	Purpose    OtpPurpose
	CodeHash   string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// CreateOtpInput contains the data to persist a challenge.
type CreateOtpInput struct {
	ID        string
	Email     string
	Purpose   OtpPurpose
	CodeHash  string
	ExpiresAt time.Time
}

// OtpRepository defines persistence operations on OTP challenges.
type OtpRepository interface {
	// Create inserts a challenge, superseding (consuming) any prior
	// unconsumed challenge for the same (email, purpose).
	Create(ctx context.Context, input CreateOtpInput) (*OtpChallenge, error)

	// Consume marks the matching challenge consumed iff it is unconsumed,
	// unexpired, and the code hash matches. Compare-and-set: at most one
	// concurrent caller succeeds. Returns ErrNotFound otherwise.
	Consume(ctx context.Context, email string, purpose OtpPurpose, codeHash string) error

	// DeleteExpired removes expired challenges (cleanup sweep).
	DeleteExpired(ctx context.Context) (int, error)
}

package repository

import (
	"context"
	"time"
)

// User is a registered account. Rows are never hard-deleted by this core.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash *string
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicView carries only the fields a client is allowed to see.
// The password hash never leaves the repository layer through this.
type PublicView struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	IsActive bool   `json:"isActive"`
}

// Public returns the client-safe projection of the user.
func (u *User) Public() *PublicView {
	return &PublicView{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		IsActive: u.IsVerified,
	}
}

// CreateUserInput contains the data to create a verified user.
type CreateUserInput struct {
	Email        string
	Username     string
	PasswordHash string
	IsVerified   bool
}

// UserRepository defines persistence operations on users.
type UserRepository interface {
	// GetByEmail looks a user up by (lowercased) email.
	// Returns ErrNotFound if it does not exist.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByID looks a user up by ID.
	// Returns ErrNotFound if it does not exist.
	GetByID(ctx context.Context, userID int64) (*User, error)

	// Create inserts a new user. Returns ErrConflict if the email is taken.
	Create(ctx context.Context, input CreateUserInput) (*User, error)

	// UpdatePasswordHash overwrites the stored password hash.
	UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error

	// UpdateEmailAndPassword atomically rewrites both credentials and deletes
	// every refresh token of the user in the same transaction.
	// Returns ErrConflict if the new email is already taken.
	UpdateEmailAndPassword(ctx context.Context, userID int64, newEmail, newHash string) error
}

// Package memory implements the store on process-local maps. It backs the
// "memory" driver used for development and the service tests. All semantics
// match the Postgres adapter, including the conditional consume operations.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/maticastro/authgate/internal/domain/repository"
	"github.com/maticastro/authgate/internal/store"
)

func init() {
	store.Register("memory", func(_ context.Context, _ store.Config) (store.Store, error) {
		return New(), nil
	})
}

// Store is the in-memory implementation. The zero value is not usable; call New.
type Store struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*repository.User
	tokens map[string]*repository.RefreshToken // keyed by token hash
	otps   map[string]*repository.OtpChallenge // keyed by challenge ID
}

// New builds an empty in-memory store.
func New() *Store {
	return &Store{
		nextID: 1,
		users:  make(map[int64]*repository.User),
		tokens: make(map[string]*repository.RefreshToken),
		otps:   make(map[string]*repository.OtpChallenge),
	}
}

func (s *Store) Users() repository.UserRepository   { return (*userRepo)(s) }
func (s *Store) Tokens() repository.TokenRepository { return (*tokenRepo)(s) }
func (s *Store) Otps() repository.OtpRepository     { return (*otpRepo)(s) }

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close()                     {}

func cloneUser(u *repository.User) *repository.User {
	cp := *u
	if u.PasswordHash != nil {
		h := *u.PasswordHash
		cp.PasswordHash = &h
	}
	return &cp
}

func cloneToken(t *repository.RefreshToken) *repository.RefreshToken {
	cp := *t
	if t.RevokedAt != nil {
		at := *t.RevokedAt
		cp.RevokedAt = &at
	}
	return &cp
}

// ─── UserRepository ───

type userRepo Store

func (r *userRepo) GetByEmail(_ context.Context, email string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) GetByID(_ context.Context, userID int64) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepo) Create(_ context.Context, input repository.CreateUserInput) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(input.Email)
	for _, u := range r.users {
		if u.Email == email {
			return nil, repository.ErrConflict
		}
	}

	now := time.Now()
	hash := input.PasswordHash
	u := &repository.User{
		ID:           r.nextID,
		Email:        email,
		Username:     input.Username,
		PasswordHash: &hash,
		IsVerified:   input.IsVerified,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.nextID++
	r.users[u.ID] = u
	return cloneUser(u), nil
}

func (r *userRepo) UpdatePasswordHash(_ context.Context, userID int64, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = &newHash
	u.UpdatedAt = time.Now()
	return nil
}

func (r *userRepo) UpdateEmailAndPassword(_ context.Context, userID int64, newEmail, newHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}

	email := strings.ToLower(newEmail)
	for id, other := range r.users {
		if id != userID && other.Email == email {
			return repository.ErrConflict
		}
	}

	u.Email = email
	u.PasswordHash = &newHash
	u.UpdatedAt = time.Now()

	for hash, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, hash)
		}
	}
	return nil
}

// ─── TokenRepository ───

type tokenRepo Store

func (r *tokenRepo) Create(_ context.Context, input repository.CreateRefreshTokenInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tokens[input.TokenHash]; exists {
		return repository.ErrConflict
	}
	r.tokens[input.TokenHash] = &repository.RefreshToken{
		ID:        input.ID,
		UserID:    input.UserID,
		TokenHash: input.TokenHash,
		IssuedAt:  time.Now(),
		ExpiresAt: input.ExpiresAt,
	}
	return nil
}

func (r *tokenRepo) GetByHash(_ context.Context, tokenHash string) (*repository.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneToken(t), nil
}

func (r *tokenRepo) ConsumeByHash(_ context.Context, tokenHash string) (*repository.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[tokenHash]
	if !ok || !t.Live(time.Now()) {
		return nil, repository.ErrNotFound
	}
	delete(r.tokens, tokenHash)
	return cloneToken(t), nil
}

func (r *tokenRepo) DeleteByHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, tokenHash)
	return nil
}

func (r *tokenRepo) DeleteAllByUser(_ context.Context, userID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for hash, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, hash)
			n++
		}
	}
	return n, nil
}

func (r *tokenRepo) DeleteExpiredByUser(_ context.Context, userID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	n := 0
	for hash, t := range r.tokens {
		if t.UserID == userID && !now.Before(t.ExpiresAt) {
			delete(r.tokens, hash)
			n++
		}
	}
	return n, nil
}

func (r *tokenRepo) DeleteExpired(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	n := 0
	for hash, t := range r.tokens {
		if !now.Before(t.ExpiresAt) {
			delete(r.tokens, hash)
			n++
		}
	}
	return n, nil
}

func (r *tokenRepo) HasLiveByUser(_ context.Context, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, t := range r.tokens {
		if t.UserID == userID && t.Live(now) {
			return true, nil
		}
	}
	return false, nil
}

// ─── OtpRepository ───

type otpRepo Store

func (r *otpRepo) Create(_ context.Context, input repository.CreateOtpInput) (*repository.OtpChallenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(input.Email)
	now := time.Now()
	for _, ch := range r.otps {
		if ch.Email == email && ch.Purpose == input.Purpose && ch.ConsumedAt == nil {
			at := now
			ch.ConsumedAt = &at
		}
	}

	ch := &repository.OtpChallenge{
		ID:        input.ID,
		Email:     email,
		Purpose:   input.Purpose,
		CodeHash:  input.CodeHash,
		ExpiresAt: input.ExpiresAt,
		CreatedAt: now,
	}
	r.otps[ch.ID] = ch

	cp := *ch
	return &cp, nil
}

func (r *otpRepo) Consume(_ context.Context, email string, purpose repository.OtpPurpose, codeHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email = strings.ToLower(email)
	now := time.Now()
	for _, ch := range r.otps {
		if ch.Email == email && ch.Purpose == purpose && ch.CodeHash == codeHash &&
			ch.ConsumedAt == nil && now.Before(ch.ExpiresAt) {
			at := now
			ch.ConsumedAt = &at
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *otpRepo) DeleteExpired(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	n := 0
	for id, ch := range r.otps {
		if !now.Before(ch.ExpiresAt) {
			delete(r.otps, id)
			n++
		}
	}
	return n, nil
}

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/maticastro/authgate/internal/domain/repository"
)

func newUser(t *testing.T, s *Store, email string) *repository.User {
	t.Helper()
	u, err := s.Users().Create(context.Background(), repository.CreateUserInput{
		Email:        email,
		Username:     "tester",
		PasswordHash: "x",
		IsVerified:   true,
	})
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func addToken(t *testing.T, s *Store, userID int64, hash string, ttl time.Duration) {
	t.Helper()
	err := s.Tokens().Create(context.Background(), repository.CreateRefreshTokenInput{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(ttl),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestUsers_CreateConflictAndLookup(t *testing.T) {
	s := New()
	ctx := context.Background()

	u := newUser(t, s, "User@Example.com")
	if u.Email != "user@example.com" {
		t.Fatalf("email not normalized: %q", u.Email)
	}

	if _, err := s.Users().Create(ctx, repository.CreateUserInput{
		Email: "USER@example.com", Username: "other", PasswordHash: "y",
	}); !repository.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}

	got, err := s.Users().GetByEmail(ctx, "USER@EXAMPLE.COM")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != u.ID {
		t.Fatalf("lookup mismatch: %d vs %d", got.ID, u.ID)
	}

	if _, err := s.Users().GetByID(ctx, 999); !repository.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTokens_ConsumeByHash_SingleSuccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := newUser(t, s, "a@example.com")

	addToken(t, s, u.ID, "hash-1", time.Hour)

	tok, err := s.Tokens().ConsumeByHash(ctx, "hash-1")
	if err != nil {
		t.Fatal(err)
	}
	if tok.UserID != u.ID {
		t.Fatalf("wrong owner %d", tok.UserID)
	}

	// Replay: the row is gone.
	if _, err := s.Tokens().ConsumeByHash(ctx, "hash-1"); !repository.IsNotFound(err) {
		t.Fatalf("expected not found on replay, got %v", err)
	}
}

func TestTokens_ConsumeByHash_RejectsExpired(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := newUser(t, s, "a@example.com")

	addToken(t, s, u.ID, "hash-exp", -time.Minute)

	if _, err := s.Tokens().ConsumeByHash(ctx, "hash-exp"); !repository.IsNotFound(err) {
		t.Fatalf("expected not found for expired token, got %v", err)
	}
	// GetByHash still sees the row so callers can classify the failure.
	if _, err := s.Tokens().GetByHash(ctx, "hash-exp"); err != nil {
		t.Fatal(err)
	}
}

func TestTokens_LifecycleQueries(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := newUser(t, s, "a@example.com")

	addToken(t, s, u.ID, "live", time.Hour)
	addToken(t, s, u.ID, "dead", -time.Minute)

	live, err := s.Tokens().HasLiveByUser(ctx, u.ID)
	if err != nil || !live {
		t.Fatalf("expected live session, got %v %v", live, err)
	}

	n, err := s.Tokens().DeleteExpiredByUser(ctx, u.ID)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 expired deleted, got %d %v", n, err)
	}

	n, err = s.Tokens().DeleteAllByUser(ctx, u.ID)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 deleted, got %d %v", n, err)
	}

	live, err = s.Tokens().HasLiveByUser(ctx, u.ID)
	if err != nil || live {
		t.Fatalf("expected no live session, got %v %v", live, err)
	}
}

func TestUsers_UpdateEmailAndPassword_RevokesTokens(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := newUser(t, s, "old@example.com")
	other := newUser(t, s, "taken@example.com")

	addToken(t, s, u.ID, "h1", time.Hour)

	if err := s.Users().UpdateEmailAndPassword(ctx, u.ID, "taken@example.com", "new"); !repository.IsConflict(err) {
		t.Fatalf("expected conflict for taken email, got %v", err)
	}

	if err := s.Users().UpdateEmailAndPassword(ctx, u.ID, "NEW@example.com", "newhash"); err != nil {
		t.Fatal(err)
	}

	got, err := s.Users().GetByID(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Email != "new@example.com" || *got.PasswordHash != "newhash" {
		t.Fatalf("update not applied: %q %q", got.Email, *got.PasswordHash)
	}

	live, err := s.Tokens().HasLiveByUser(ctx, u.ID)
	if err != nil || live {
		t.Fatalf("tokens must die with the email change, got %v %v", live, err)
	}

	// Untouched user keeps its identity.
	if _, err := s.Users().GetByEmail(ctx, other.Email); err != nil {
		t.Fatal(err)
	}
}

func TestOtps_SupersedeAndConsume(t *testing.T) {
	s := New()
	ctx := context.Background()

	mk := func(hash string) {
		t.Helper()
		_, err := s.Otps().Create(ctx, repository.CreateOtpInput{
			ID:        uuid.NewString(),
			Email:     "a@example.com",
			Purpose:   repository.OtpPasswordReset,
			CodeHash:  hash,
			ExpiresAt: time.Now().Add(10 * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	mk("old-code")
	mk("new-code")

	// The superseded code is dead.
	err := s.Otps().Consume(ctx, "a@example.com", repository.OtpPasswordReset, "old-code")
	if !repository.IsNotFound(err) {
		t.Fatalf("expected superseded code to fail, got %v", err)
	}

	// Email matching is case-insensitive.
	if err := s.Otps().Consume(ctx, "A@EXAMPLE.COM", repository.OtpPasswordReset, "new-code"); err != nil {
		t.Fatal(err)
	}

	// Single use.
	err = s.Otps().Consume(ctx, "a@example.com", repository.OtpPasswordReset, "new-code")
	if !repository.IsNotFound(err) {
		t.Fatalf("expected consumed code to fail, got %v", err)
	}
}

func TestOtps_PurposeScoping(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Otps().Create(ctx, repository.CreateOtpInput{
		ID:        uuid.NewString(),
		Email:     "a@example.com",
		Purpose:   repository.OtpRegistration,
		CodeHash:  "code",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	})
	if err != nil {
		t.Fatal(err)
	}

	err = s.Otps().Consume(ctx, "a@example.com", repository.OtpPasswordReset, "code")
	if !repository.IsNotFound(err) {
		t.Fatalf("code must not cross purposes, got %v", err)
	}
}

func TestDeleteExpired(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := newUser(t, s, "a@example.com")

	addToken(t, s, u.ID, "dead", -time.Minute)
	addToken(t, s, u.ID, "live", time.Hour)

	_, err := s.Otps().Create(ctx, repository.CreateOtpInput{
		ID:        uuid.NewString(),
		Email:     "a@example.com",
		Purpose:   repository.OtpRegistration,
		CodeHash:  "c",
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	if err != nil {
		t.Fatal(err)
	}

	n, err := s.Tokens().DeleteExpired(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 token swept, got %d %v", n, err)
	}
	n, err = s.Otps().DeleteExpired(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 otp swept, got %d %v", n, err)
	}
}

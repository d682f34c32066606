package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/maticastro/authgate/internal/domain/repository"
	apperrors "github.com/maticastro/authgate/internal/http/errors"
	jwtx "github.com/maticastro/authgate/internal/jwt"
	tokens "github.com/maticastro/authgate/internal/security/token"
	"github.com/maticastro/authgate/internal/store/memory"
)

func newValidator(t *testing.T) (*Validator, *memory.Store, *jwtx.Issuer) {
	t.Helper()
	st := memory.New()
	issuer := &jwtx.Issuer{
		Secret:    []byte("0123456789abcdef0123456789abcdef"),
		AccessTTL: 15 * time.Minute,
	}
	return NewValidator(Deps{Store: st, Issuer: issuer}), st, issuer
}

func seedUser(t *testing.T, st *memory.Store, verified bool) *repository.User {
	t.Helper()
	u, err := st.Users().Create(context.Background(), repository.CreateUserInput{
		Email:        "ana@example.com",
		Username:     "ana",
		PasswordHash: "x",
		IsVerified:   verified,
	})
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func seedLiveToken(t *testing.T, st *memory.Store, userID int64) {
	t.Helper()
	raw, err := tokens.GenerateOpaque(32)
	if err != nil {
		t.Fatal(err)
	}
	err = st.Tokens().Create(context.Background(), repository.CreateRefreshTokenInput{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: tokens.SHA256Hex(raw),
		ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestValidate_LiveSession(t *testing.T) {
	v, st, issuer := newValidator(t)
	user := seedUser(t, st, true)
	seedLiveToken(t, st, user.ID)

	access, _, err := issuer.SignAccess(user.ID, false)
	require.NoError(t, err)

	got, err := v.Validate(context.Background(), access)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
}

func TestValidate_GarbageToken(t *testing.T) {
	v, _, _ := newValidator(t)

	_, err := v.Validate(context.Background(), "not-a-jwt")
	require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestValidate_NoLiveSession(t *testing.T) {
	v, st, issuer := newValidator(t)
	user := seedUser(t, st, true)

	// The JWT is valid but nothing backs it: logged out everywhere.
	access, _, err := issuer.SignAccess(user.ID, false)
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), access)
	require.ErrorIs(t, err, apperrors.ErrSessionExpired)
}

func TestValidate_RevocationTakesEffect(t *testing.T) {
	v, st, issuer := newValidator(t)
	user := seedUser(t, st, true)
	seedLiveToken(t, st, user.ID)

	access, _, err := issuer.SignAccess(user.ID, false)
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), access)
	require.NoError(t, err)

	// Revoke everything; the still-unexpired JWT stops working.
	_, err = st.Tokens().DeleteAllByUser(context.Background(), user.ID)
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), access)
	require.ErrorIs(t, err, apperrors.ErrSessionExpired)
}

func TestValidate_DeactivatedUser(t *testing.T) {
	v, st, issuer := newValidator(t)
	user := seedUser(t, st, false)
	seedLiveToken(t, st, user.ID)

	access, _, err := issuer.SignAccess(user.ID, false)
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), access)
	require.ErrorIs(t, err, apperrors.ErrAccountDeactivated)
}

func TestValidate_UnknownUser(t *testing.T) {
	v, _, issuer := newValidator(t)

	access, _, err := issuer.SignAccess(9999, false)
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), access)
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	dto "github.com/maticastro/authgate/internal/http/dto/auth"
)

func TestLoginPassword_Success(t *testing.T) {
	deps, st, _ := newTestDeps(t)
	user := seedUser(t, st, "ana@example.com", "hunter2!")

	svc := NewLoginService(deps)
	result, err := svc.LoginPassword(context.Background(), dto.LoginRequest{
		Email:    "Ana@Example.com", // normalized
		Password: "hunter2!",
	})
	require.NoError(t, err)
	require.Equal(t, user.ID, result.User.ID)
	require.True(t, result.User.IsActive)
	require.NotEmpty(t, result.Pair.AccessToken)
	require.NotEmpty(t, result.Pair.RefreshToken)
	require.Equal(t, deps.RefreshTTL, result.Pair.RefreshTTL)

	// The refresh token is persisted, so the session is live.
	require.True(t, hasLive(t, st, user.ID))

	// The signed access token parses back to the same user.
	claims, err := deps.Issuer.ParseAccess(result.Pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
}

func TestLoginPassword_RememberMe(t *testing.T) {
	deps, st, _ := newTestDeps(t)
	seedUser(t, st, "ana@example.com", "hunter2!")

	svc := NewLoginService(deps)
	result, err := svc.LoginPassword(context.Background(), dto.LoginRequest{
		Email:      "ana@example.com",
		Password:   "hunter2!",
		RememberMe: true,
	})
	require.NoError(t, err)
	require.Equal(t, deps.RefreshTTLRemember, result.Pair.RefreshTTL)
}

func TestLoginPassword_WrongPassword(t *testing.T) {
	deps, st, _ := newTestDeps(t)
	user := seedUser(t, st, "ana@example.com", "hunter2!")

	svc := NewLoginService(deps)
	_, err := svc.LoginPassword(context.Background(), dto.LoginRequest{
		Email:    "ana@example.com",
		Password: "wrong",
	})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.False(t, hasLive(t, st, user.ID))
}

func TestLoginPassword_UnknownEmail(t *testing.T) {
	deps, _, _ := newTestDeps(t)

	svc := NewLoginService(deps)
	_, err := svc.LoginPassword(context.Background(), dto.LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	// Same error as a wrong password: no account probing.
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginPassword_DeactivatedAccount(t *testing.T) {
	deps, st, _ := newTestDeps(t)
	seedDeactivatedUser(t, st, "ana@example.com", "hunter2!")

	svc := NewLoginService(deps)
	_, err := svc.LoginPassword(context.Background(), dto.LoginRequest{
		Email:    "ana@example.com",
		Password: "hunter2!",
	})
	require.ErrorIs(t, err, ErrAccountDeactivated)
}

func TestLoginPassword_MissingFields(t *testing.T) {
	deps, _, _ := newTestDeps(t)

	svc := NewLoginService(deps)
	_, err := svc.LoginPassword(context.Background(), dto.LoginRequest{Email: "a@b.c"})
	require.ErrorIs(t, err, ErrMissingFields)
}

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRefresh_Rotates(t *testing.T) {
	deps, st, _ := newTestDeps(t)
	user := seedUser(t, st, "ana@example.com", "hunter2!")
	raw := seedToken(t, st, user.ID, deps.RefreshTTL)

	svc := NewRefreshService(deps)
	result, err := svc.Refresh(context.Background(), raw)
	require.NoError(t, err)
	require.NotEmpty(t, result.Pair.AccessToken)
	require.NotEqual(t, raw, result.Pair.RefreshToken)

	claims, err := deps.Issuer.ParseAccess(result.Pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)

	// Exactly one live token remains: the new one.
	require.True(t, hasLive(t, st, user.ID))
	n, err := st.Tokens().DeleteAllByUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestRefresh_ReplayIsRejected(t *testing.T) {
	deps, st, _ := newTestDeps(t)
	user := seedUser(t, st, "ana@example.com", "hunter2!")
	raw := seedToken(t, st, user.ID, deps.RefreshTTL)

	svc := NewRefreshService(deps)
	_, err := svc.Refresh(context.Background(), raw)
	require.NoError(t, err)

	// Presenting the consumed token again must fail and must not mint
	// anything.
	_, err = svc.Refresh(context.Background(), raw)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefresh_UnknownToken(t *testing.T) {
	deps, _, _ := newTestDeps(t)

	svc := NewRefreshService(deps)
	_, err := svc.Refresh(context.Background(), "definitely-not-a-token")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = svc.Refresh(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	deps, st, _ := newTestDeps(t)
	user := seedUser(t, st, "ana@example.com", "hunter2!")
	raw := seedToken(t, st, user.ID, -time.Minute)

	svc := NewRefreshService(deps)
	_, err := svc.Refresh(context.Background(), raw)
	require.ErrorIs(t, err, ErrRefreshTokenExpired)
}

func TestRefresh_KeepsRememberMeHorizon(t *testing.T) {
	deps, st, _ := newTestDeps(t)
	user := seedUser(t, st, "ana@example.com", "hunter2!")
	raw := seedToken(t, st, user.ID, deps.RefreshTTLRemember)

	svc := NewRefreshService(deps)
	result, err := svc.Refresh(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, deps.RefreshTTLRemember, result.Pair.RefreshTTL)
}

func TestRefresh_DeactivatedUser(t *testing.T) {
	deps, st, _ := newTestDeps(t)
	user := seedDeactivatedUser(t, st, "ana@example.com", "hunter2!")
	raw := seedToken(t, st, user.ID, deps.RefreshTTL)

	svc := NewRefreshService(deps)
	_, err := svc.Refresh(context.Background(), raw)
	require.ErrorIs(t, err, ErrAccountDeactivated)
}

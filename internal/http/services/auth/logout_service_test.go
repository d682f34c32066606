package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogout_RevokesToken(t *testing.T) {
	deps, st, _ := newTestDeps(t)
	user := seedUser(t, st, "ana@example.com", "hunter2!")
	raw := seedToken(t, st, user.ID, deps.RefreshTTL)

	svc := NewLogoutService(deps)
	require.NoError(t, svc.Logout(context.Background(), raw))
	require.False(t, hasLive(t, st, user.ID))
}

func TestLogout_IsIdempotent(t *testing.T) {
	deps, _, _ := newTestDeps(t)

	svc := NewLogoutService(deps)
	require.NoError(t, svc.Logout(context.Background(), "unknown-token"))
	require.NoError(t, svc.Logout(context.Background(), ""))
}

func TestLogoutAll(t *testing.T) {
	deps, st, _ := newTestDeps(t)
	user := seedUser(t, st, "ana@example.com", "hunter2!")
	seedToken(t, st, user.ID, deps.RefreshTTL)
	seedToken(t, st, user.ID, deps.RefreshTTLRemember)

	other := seedUser(t, st, "other@example.com", "hunter2!")
	seedToken(t, st, other.ID, deps.RefreshTTL)

	svc := NewLogoutService(deps)
	n, err := svc.LogoutAll(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.False(t, hasLive(t, st, user.ID))
	// Other users are untouched.
	require.True(t, hasLive(t, st, other.ID))
}

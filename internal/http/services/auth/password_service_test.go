package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	dto "github.com/maticastro/authgate/internal/http/dto/auth"
)

func TestForgot_UnknownEmailStaysSilent(t *testing.T) {
	deps, _, sender := newTestDeps(t)

	svc := NewPasswordService(deps)
	require.NoError(t, svc.Forgot(context.Background(), "ghost@example.com"))
	require.Zero(t, sender.count(), "no mail for unregistered addresses")
}

func TestResetFlow_EndToEnd(t *testing.T) {
	deps, st, sender := newTestDeps(t)
	user := seedUser(t, st, "ana@example.com", "old-password")
	seedToken(t, st, user.ID, deps.RefreshTTL)

	svc := NewPasswordService(deps)
	ctx := context.Background()

	require.NoError(t, svc.Forgot(ctx, "ana@example.com"))
	code := sender.lastCodeTo(t, "ana@example.com")

	require.ErrorIs(t, svc.VerifyResetOtp(ctx, "ana@example.com", "00000"), ErrOtpInvalid)
	require.NoError(t, svc.VerifyResetOtp(ctx, "ana@example.com", code))

	// The verified code unlocks the reset; the code itself is not
	// presented again.
	require.NoError(t, svc.ResetPassword(ctx, "ana@example.com", "new-password", "new-password"))

	// Every session died with the reset.
	require.False(t, hasLive(t, st, user.ID))

	// The unlock is spent with the reset.
	require.ErrorIs(t,
		svc.ResetPassword(ctx, "ana@example.com", "again", "again"),
		ErrOtpInvalid)

	// Old password out, new password in.
	login := NewLoginService(deps)
	_, err := login.LoginPassword(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "old-password"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = login.LoginPassword(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "new-password"})
	require.NoError(t, err)
}

func TestVerifyResetOtp_SingleUse(t *testing.T) {
	deps, st, sender := newTestDeps(t)
	seedUser(t, st, "ana@example.com", "pw")

	svc := NewPasswordService(deps)
	ctx := context.Background()

	require.NoError(t, svc.Forgot(ctx, "ana@example.com"))
	code := sender.lastCodeTo(t, "ana@example.com")

	// Verifying consumes the challenge: the same code succeeds once and
	// fails on every replay.
	require.NoError(t, svc.VerifyResetOtp(ctx, "ana@example.com", code))
	require.ErrorIs(t, svc.VerifyResetOtp(ctx, "ana@example.com", code), ErrOtpInvalid)
}

func TestResetPassword_RequiresVerifiedCode(t *testing.T) {
	deps, st, sender := newTestDeps(t)
	seedUser(t, st, "ana@example.com", "old-password")

	svc := NewPasswordService(deps)
	ctx := context.Background()

	// No code requested at all.
	require.ErrorIs(t,
		svc.ResetPassword(ctx, "ana@example.com", "new-password", "new-password"),
		ErrOtpInvalid)

	// Code requested but never verified.
	require.NoError(t, svc.Forgot(ctx, "ana@example.com"))
	require.NotZero(t, sender.count())
	require.ErrorIs(t,
		svc.ResetPassword(ctx, "ana@example.com", "new-password", "new-password"),
		ErrOtpInvalid)

	// The old password still works.
	login := NewLoginService(deps)
	_, err := login.LoginPassword(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "old-password"})
	require.NoError(t, err)
}

func TestResetPassword_ConfirmationMismatch(t *testing.T) {
	deps, st, sender := newTestDeps(t)
	seedUser(t, st, "ana@example.com", "old-password")

	svc := NewPasswordService(deps)
	ctx := context.Background()

	require.NoError(t, svc.Forgot(ctx, "ana@example.com"))
	code := sender.lastCodeTo(t, "ana@example.com")
	require.NoError(t, svc.VerifyResetOtp(ctx, "ana@example.com", code))

	err := svc.ResetPassword(ctx, "ana@example.com", "new-password", "other")
	require.ErrorIs(t, err, ErrPasswordMismatch)

	// The unlock survives a mismatch, so a corrected submit succeeds.
	require.NoError(t, svc.ResetPassword(ctx, "ana@example.com", "new-password", "new-password"))
}

func TestForgot_ReissueSupersedes(t *testing.T) {
	deps, st, sender := newTestDeps(t)
	seedUser(t, st, "ana@example.com", "pw")

	svc := NewPasswordService(deps)
	ctx := context.Background()

	require.NoError(t, svc.Forgot(ctx, "ana@example.com"))
	first := sender.lastCodeTo(t, "ana@example.com")

	require.NoError(t, svc.Forgot(ctx, "ana@example.com"))
	second := sender.lastCodeTo(t, "ana@example.com")

	if first != second {
		// The earlier code must be dead now.
		require.ErrorIs(t, svc.VerifyResetOtp(ctx, "ana@example.com", first), ErrOtpInvalid)
	}
	require.NoError(t, svc.VerifyResetOtp(ctx, "ana@example.com", second))
}

func TestChangePassword(t *testing.T) {
	deps, st, _ := newTestDeps(t)
	user := seedUser(t, st, "ana@example.com", "current-pw")
	seedToken(t, st, user.ID, deps.RefreshTTL)

	svc := NewPasswordService(deps)
	ctx := context.Background()

	require.ErrorIs(t,
		svc.ChangePassword(ctx, user.ID, "wrong", "new-pw", "new-pw"),
		ErrInvalidCredentials)
	require.ErrorIs(t,
		svc.ChangePassword(ctx, user.ID, "current-pw", "new-pw", "other"),
		ErrPasswordMismatch)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "current-pw", "new-pw", "new-pw"))
	require.False(t, hasLive(t, st, user.ID))

	login := NewLoginService(deps)
	_, err := login.LoginPassword(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "new-pw"})
	require.NoError(t, err)
}

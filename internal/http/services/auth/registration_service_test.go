package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	dto "github.com/maticastro/authgate/internal/http/dto/auth"
)

func TestRegistration_FullFlow(t *testing.T) {
	deps, _, sender := newTestDeps(t)
	svc := NewRegistrationService(deps)
	ctx := context.Background()

	require.NoError(t, svc.StartEmail(ctx, "New@Example.com"))
	code := sender.lastCodeTo(t, "new@example.com")

	require.NoError(t, svc.VerifyEmailOtp(ctx, "new@example.com", code))

	user, err := svc.CompleteDetails(ctx, "new@example.com", "newbie", "s3cret!", "s3cret!")
	require.NoError(t, err)
	require.Equal(t, "new@example.com", user.Email)
	require.Equal(t, "newbie", user.Username)
	require.True(t, user.IsActive)

	// The account works immediately.
	login := NewLoginService(deps)
	_, err = login.LoginPassword(ctx, dto.LoginRequest{Email: "new@example.com", Password: "s3cret!"})
	require.NoError(t, err)
}

func TestRegistration_TakenEmail(t *testing.T) {
	deps, st, sender := newTestDeps(t)
	seedUser(t, st, "taken@example.com", "pw")

	svc := NewRegistrationService(deps)
	err := svc.StartEmail(context.Background(), "taken@example.com")
	require.ErrorIs(t, err, ErrEmailAlreadyInUse)
	require.Zero(t, sender.count())
}

func TestRegistration_DetailsBeforeVerify(t *testing.T) {
	deps, _, _ := newTestDeps(t)
	svc := NewRegistrationService(deps)
	ctx := context.Background()

	require.NoError(t, svc.StartEmail(ctx, "new@example.com"))

	// Code requested but never verified.
	_, err := svc.CompleteDetails(ctx, "new@example.com", "newbie", "s3cret!", "s3cret!")
	require.ErrorIs(t, err, ErrStepOutOfOrder)
}

func TestRegistration_WrongOtp(t *testing.T) {
	deps, _, _ := newTestDeps(t)
	svc := NewRegistrationService(deps)
	ctx := context.Background()

	require.NoError(t, svc.StartEmail(ctx, "new@example.com"))
	require.ErrorIs(t, svc.VerifyEmailOtp(ctx, "new@example.com", "00000"), ErrOtpInvalid)
}

func TestRegistration_PasswordMismatch(t *testing.T) {
	deps, _, sender := newTestDeps(t)
	svc := NewRegistrationService(deps)
	ctx := context.Background()

	require.NoError(t, svc.StartEmail(ctx, "new@example.com"))
	code := sender.lastCodeTo(t, "new@example.com")
	require.NoError(t, svc.VerifyEmailOtp(ctx, "new@example.com", code))

	_, err := svc.CompleteDetails(ctx, "new@example.com", "newbie", "s3cret!", "other")
	require.ErrorIs(t, err, ErrPasswordMismatch)

	// The verified mark survives a bad submit, so a corrected one succeeds.
	_, err = svc.CompleteDetails(ctx, "new@example.com", "newbie", "s3cret!", "s3cret!")
	require.NoError(t, err)
}

func TestRegistration_RestartResetsProgress(t *testing.T) {
	deps, _, sender := newTestDeps(t)
	svc := NewRegistrationService(deps)
	ctx := context.Background()

	require.NoError(t, svc.StartEmail(ctx, "new@example.com"))
	code := sender.lastCodeTo(t, "new@example.com")
	require.NoError(t, svc.VerifyEmailOtp(ctx, "new@example.com", code))

	// Going back to step 1 discards the earlier verification: details are
	// locked until the freshly issued code is verified.
	require.NoError(t, svc.StartEmail(ctx, "new@example.com"))
	_, err := svc.CompleteDetails(ctx, "new@example.com", "newbie", "s3cret!", "s3cret!")
	require.ErrorIs(t, err, ErrStepOutOfOrder)

	fresh := sender.lastCodeTo(t, "new@example.com")
	require.NoError(t, svc.VerifyEmailOtp(ctx, "new@example.com", fresh))
	_, err = svc.CompleteDetails(ctx, "new@example.com", "newbie", "s3cret!", "s3cret!")
	require.NoError(t, err)
}

func TestRegistration_MarkIsSingleUse(t *testing.T) {
	deps, _, sender := newTestDeps(t)
	svc := NewRegistrationService(deps)
	ctx := context.Background()

	require.NoError(t, svc.StartEmail(ctx, "new@example.com"))
	code := sender.lastCodeTo(t, "new@example.com")
	require.NoError(t, svc.VerifyEmailOtp(ctx, "new@example.com", code))

	_, err := svc.CompleteDetails(ctx, "new@example.com", "newbie", "s3cret!", "s3cret!")
	require.NoError(t, err)

	// The flow state is gone after the account is created.
	_, err = svc.CompleteDetails(ctx, "new@example.com", "newbie", "s3cret!", "s3cret!")
	require.ErrorIs(t, err, ErrStepOutOfOrder)
}

package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/maticastro/authgate/internal/cache"
	"github.com/maticastro/authgate/internal/domain/repository"
	"github.com/maticastro/authgate/internal/metrics"
	"github.com/maticastro/authgate/internal/observability/logger"
	"github.com/maticastro/authgate/internal/security/password"
	tokens "github.com/maticastro/authgate/internal/security/token"
)

// PasswordService covers the recovery flow (forgot / verify / reset) and the
// authenticated password change.
type PasswordService interface {
	// Forgot issues a reset code. Always reports success so the endpoint
	// cannot be used to probe which emails are registered.
	Forgot(ctx context.Context, email string) error

	// VerifyResetOtp consumes the code (single use) and unlocks
	// ResetPassword for the email. A second verify of the same code fails.
	VerifyResetOtp(ctx context.Context, email, code string) error

	// ResetPassword sets the new password and revokes every session of the
	// user. Requires a prior successful VerifyResetOtp for the email.
	ResetPassword(ctx context.Context, email, newPassword, confirmPassword string) error

	// ChangePassword verifies the current password, sets the new one and
	// revokes every session of the user.
	ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword, confirmPassword string) error
}

type passwordService struct {
	deps Deps
}

func NewPasswordService(deps Deps) PasswordService {
	return &passwordService{deps: deps}
}

// Password flow errors
var (
	ErrOtpInvalid       = fmt.Errorf("otp invalid or expired")
	ErrPasswordMismatch = fmt.Errorf("password confirmation mismatch")
)

// resetVerifiedKey marks that the reset code for the email was consumed and
// the new password may be submitted.
func resetVerifiedKey(email string) string { return "pwrv:" + email }

func (s *passwordService) Forgot(ctx context.Context, email string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.password"),
		logger.Op("Forgot"),
	)

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil
	}

	user, err := s.deps.Store.Users().GetByEmail(ctx, email)
	if err != nil {
		// Unknown address: same outcome as success, nothing sent.
		log.Debug("forgot-password for unknown email")
		return nil
	}

	if err := issueOtp(ctx, s.deps, user.Email, repository.OtpPasswordReset); err != nil {
		// Still report success to the caller; the failure is ours, not
		// information for the client.
		log.Error("reset code issue failed", logger.Err(err))
	}
	return nil
}

func (s *passwordService) VerifyResetOtp(ctx context.Context, email, code string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return ErrOtpInvalid
	}

	// Single use: the compare-and-set consume makes a second verify of the
	// same code fail.
	err := s.deps.Store.Otps().Consume(ctx, email, repository.OtpPasswordReset, tokens.SHA256Hex(code))
	if err != nil {
		metrics.RecordOtpVerified(string(repository.OtpPasswordReset), "invalid")
		if repository.IsNotFound(err) {
			return ErrOtpInvalid
		}
		return err
	}
	metrics.RecordOtpVerified(string(repository.OtpPasswordReset), "ok")

	// Unlock the reset step; the code itself is spent.
	return s.deps.Cache.Set(ctx, resetVerifiedKey(email), []byte("1"), flowStateTTL)
}

func (s *passwordService) ResetPassword(ctx context.Context, email, newPassword, confirmPassword string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.password"),
		logger.Op("ResetPassword"),
	)

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || newPassword == "" {
		return ErrMissingFields
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	// The code must have been verified first, and the unlock must still be
	// live.
	if _, err := s.deps.Cache.Get(ctx, resetVerifiedKey(email)); err != nil {
		if cache.IsNotFound(err) {
			log.Debug("reset without verified code")
			return ErrOtpInvalid
		}
		return err
	}

	user, err := s.deps.Store.Users().GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	log = log.With(logger.UserID(user.ID))

	hash, err := password.Hash(password.Default, newPassword)
	if err != nil {
		return err
	}
	if err := s.deps.Store.Users().UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return err
	}

	// A reset means the old credential may be compromised: end every
	// session, including the attacker's.
	n, err := s.deps.Store.Tokens().DeleteAllByUser(ctx, user.ID)
	if err != nil {
		log.Error("session revocation failed", logger.Err(err))
		return err
	}
	metrics.RecordRevocations("password_reset", n)

	_ = s.deps.Cache.Delete(ctx, resetVerifiedKey(email))

	log.Info("password reset", logger.Count(n))
	return nil
}

func (s *passwordService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword, confirmPassword string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.password"),
		logger.Op("ChangePassword"),
		logger.UserID(userID),
	)

	if currentPassword == "" || newPassword == "" {
		return ErrMissingFields
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	user, err := s.deps.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.PasswordHash == nil || *user.PasswordHash == "" {
		return ErrInvalidCredentials
	}

	if !password.Verify(currentPassword, *user.PasswordHash) {
		log.Debug("current password check failed")
		return ErrInvalidCredentials
	}

	hash, err := password.Hash(password.Default, newPassword)
	if err != nil {
		return err
	}
	if err := s.deps.Store.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	n, err := s.deps.Store.Tokens().DeleteAllByUser(ctx, userID)
	if err != nil {
		log.Error("session revocation failed", logger.Err(err))
		return err
	}
	metrics.RecordRevocations("password_change", n)

	log.Info("password changed", logger.Count(n))
	return nil
}

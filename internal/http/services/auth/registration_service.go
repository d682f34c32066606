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

// RegistrationService runs the three-step signup: request a code for an
// email, verify the code, then submit the account details. The verified-email
// mark lives in the cache between the last two steps.
type RegistrationService interface {
	StartEmail(ctx context.Context, email string) error
	VerifyEmailOtp(ctx context.Context, email, code string) error
	CompleteDetails(ctx context.Context, email, username, pass, confirmPass string) (*repository.PublicView, error)
}

type registrationService struct {
	deps Deps
}

func NewRegistrationService(deps Deps) RegistrationService {
	return &registrationService{deps: deps}
}

// Registration errors
var (
	ErrEmailAlreadyInUse = fmt.Errorf("email already in use")
	ErrStepOutOfOrder    = fmt.Errorf("flow step out of order")
)

func regVerifiedKey(email string) string { return "regv:" + email }

func (s *registrationService) StartEmail(ctx context.Context, email string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.registration"),
		logger.Op("StartEmail"),
	)

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return ErrMissingFields
	}

	if _, err := s.deps.Store.Users().GetByEmail(ctx, email); err == nil {
		log.Debug("registration for taken email")
		return ErrEmailAlreadyInUse
	} else if !repository.IsNotFound(err) {
		return err
	}

	// Re-entering step 1 resets forward progress: a previously verified
	// email must be re-verified with the new code.
	_ = s.deps.Cache.Delete(ctx, regVerifiedKey(email))

	return issueOtp(ctx, s.deps, email, repository.OtpRegistration)
}

func (s *registrationService) VerifyEmailOtp(ctx context.Context, email, code string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.registration"),
		logger.Op("VerifyEmailOtp"),
	)

	email = strings.TrimSpace(strings.ToLower(email))
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return ErrOtpInvalid
	}

	err := s.deps.Store.Otps().Consume(ctx, email, repository.OtpRegistration, tokens.SHA256Hex(code))
	if err != nil {
		metrics.RecordOtpVerified(string(repository.OtpRegistration), "invalid")
		if repository.IsNotFound(err) {
			return ErrOtpInvalid
		}
		return err
	}
	metrics.RecordOtpVerified(string(repository.OtpRegistration), "ok")

	if err := s.deps.Cache.Set(ctx, regVerifiedKey(email), []byte("1"), flowStateTTL); err != nil {
		return err
	}

	log.Info("registration email verified")
	return nil
}

func (s *registrationService) CompleteDetails(ctx context.Context, email, username, pass, confirmPass string) (*repository.PublicView, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.registration"),
		logger.Op("CompleteDetails"),
	)

	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(username)
	if email == "" || username == "" || pass == "" {
		return nil, ErrMissingFields
	}
	if pass != confirmPass {
		return nil, ErrPasswordMismatch
	}

	// The email must have passed the verify step and the mark must still be
	// live.
	if _, err := s.deps.Cache.Get(ctx, regVerifiedKey(email)); err != nil {
		if cache.IsNotFound(err) {
			log.Debug("details before email verification")
			return nil, ErrStepOutOfOrder
		}
		return nil, err
	}

	hash, err := password.Hash(password.Default, pass)
	if err != nil {
		return nil, err
	}

	user, err := s.deps.Store.Users().Create(ctx, repository.CreateUserInput{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		IsVerified:   true,
	})
	if err != nil {
		if repository.IsConflict(err) {
			return nil, ErrEmailAlreadyInUse
		}
		return nil, err
	}

	_ = s.deps.Cache.Delete(ctx, regVerifiedKey(email))

	log.Info("user registered", logger.UserID(user.ID))
	return user.Public(), nil
}

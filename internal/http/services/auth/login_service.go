package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/maticastro/authgate/internal/domain/repository"
	dto "github.com/maticastro/authgate/internal/http/dto/auth"
	"github.com/maticastro/authgate/internal/metrics"
	"github.com/maticastro/authgate/internal/observability/logger"
	"github.com/maticastro/authgate/internal/security/password"
)

// LoginService authenticates email/password credentials and issues a token
// pair.
type LoginService interface {
	LoginPassword(ctx context.Context, in dto.LoginRequest) (*LoginResult, error)
}

// LoginResult carries the issued pair plus the public user view.
type LoginResult struct {
	User *repository.PublicView
	Pair *tokenPair
}

type loginService struct {
	deps Deps
}

func NewLoginService(deps Deps) LoginService {
	return &loginService{deps: deps}
}

// Login errors
var (
	ErrMissingFields      = fmt.Errorf("missing required fields")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrAccountDeactivated = fmt.Errorf("account deactivated")
	ErrTokenIssueFailed   = fmt.Errorf("failed to issue tokens")
)

func (s *loginService) LoginPassword(ctx context.Context, in dto.LoginRequest) (*LoginResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("LoginPassword"),
	)

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.deps.Store.Users().GetByEmail(ctx, in.Email)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Debug("user not found")
			metrics.RecordLogin("invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	log = log.With(logger.UserID(user.ID))

	if !user.IsVerified {
		log.Info("account deactivated")
		metrics.RecordLogin("deactivated")
		return nil, ErrAccountDeactivated
	}

	if user.PasswordHash == nil || *user.PasswordHash == "" {
		log.Debug("no password set")
		metrics.RecordLogin("invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	if !password.Verify(in.Password, *user.PasswordHash) {
		log.Debug("password check failed")
		metrics.RecordLogin("invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	// Housekeeping: drop this user's expired tokens so the table does not
	// accumulate between sweeps.
	if _, err := s.deps.Store.Tokens().DeleteExpiredByUser(ctx, user.ID); err != nil {
		log.Warn("expired token cleanup failed", logger.Err(err))
	}

	pair, err := issuePair(ctx, s.deps, user.ID, in.RememberMe)
	if err != nil {
		log.Error("failed to issue tokens", logger.Err(err))
		metrics.RecordLogin("error")
		return nil, ErrTokenIssueFailed
	}

	metrics.RecordLogin("ok")
	log.Info("login successful")

	return &LoginResult{
		User: user.Public(),
		Pair: pair,
	}, nil
}

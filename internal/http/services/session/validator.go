// Package session decides whether an access token still represents a live
// session. The JWT alone is not enough: revocation is stateful, so a valid
// signature with no live refresh token behind it is an expired session.
package session

import (
	"context"

	"github.com/maticastro/authgate/internal/domain/repository"
	apperrors "github.com/maticastro/authgate/internal/http/errors"
	jwtx "github.com/maticastro/authgate/internal/jwt"
	"github.com/maticastro/authgate/internal/observability/logger"
	"github.com/maticastro/authgate/internal/store"
)

// Deps contains the validator dependencies.
type Deps struct {
	Store  store.Store
	Issuer *jwtx.Issuer
}

// Validator implements middlewares.SessionValidator.
type Validator struct {
	deps Deps
}

func NewValidator(deps Deps) *Validator {
	return &Validator{deps: deps}
}

// Validate parses the access token, resolves the user and checks the session
// is still live. Errors are *errors.AppError values ready to be written.
func (v *Validator) Validate(ctx context.Context, rawToken string) (*repository.User, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("session.validator"),
		logger.Op("Validate"),
	)

	claims, err := v.deps.Issuer.ParseAccess(rawToken)
	if err != nil {
		log.Debug("access token rejected", logger.Err(err))
		return nil, apperrors.ErrTokenInvalid
	}

	user, err := v.deps.Store.Users().GetByID(ctx, claims.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.ErrInternalServerError.WithCause(err)
	}

	if !user.IsVerified {
		return nil, apperrors.ErrAccountDeactivated
	}

	// Stateful check: with no live refresh token the JWT may still be
	// unexpired, but the session is gone (logout, password change, reset).
	live, err := v.deps.Store.Tokens().HasLiveByUser(ctx, user.ID)
	if err != nil {
		return nil, apperrors.ErrInternalServerError.WithCause(err)
	}
	if !live {
		log.Debug("no live session", logger.UserID(user.ID))
		return nil, apperrors.ErrSessionExpired
	}

	return user, nil
}

package auth

import (
	"context"
	"strings"

	"github.com/maticastro/authgate/internal/metrics"
	"github.com/maticastro/authgate/internal/observability/logger"
	tokens "github.com/maticastro/authgate/internal/security/token"
)

// LogoutService revokes refresh tokens. Logout is best-effort and idempotent:
// an unknown or already-deleted token still ends the client session.
type LogoutService interface {
	Logout(ctx context.Context, rawToken string) error
	LogoutAll(ctx context.Context, userID int64) (int, error)
}

type logoutService struct {
	deps Deps
}

func NewLogoutService(deps Deps) LogoutService {
	return &logoutService{deps: deps}
}

func (s *logoutService) Logout(ctx context.Context, rawToken string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.logout"),
		logger.Op("Logout"),
	)

	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil
	}

	if err := s.deps.Store.Tokens().DeleteByHash(ctx, tokens.SHA256Hex(rawToken)); err != nil {
		// Best effort: the client clears its cookies either way.
		log.Warn("refresh token delete failed", logger.Err(err))
		return nil
	}

	metrics.RecordRevocations("logout", 1)
	log.Info("logout")
	return nil
}

func (s *logoutService) LogoutAll(ctx context.Context, userID int64) (int, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.logout"),
		logger.Op("LogoutAll"),
		logger.UserID(userID),
	)

	n, err := s.deps.Store.Tokens().DeleteAllByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	metrics.RecordRevocations("logout_all", n)
	log.Info("all sessions revoked", logger.Count(n))
	return n, nil
}

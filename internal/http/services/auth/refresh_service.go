package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/maticastro/authgate/internal/domain/repository"
	"github.com/maticastro/authgate/internal/metrics"
	"github.com/maticastro/authgate/internal/observability/logger"
	tokens "github.com/maticastro/authgate/internal/security/token"
)

// RefreshService rotates a refresh token: the presented token is consumed and
// a fresh pair is issued in its place.
type RefreshService interface {
	Refresh(ctx context.Context, rawToken string) (*RefreshResult, error)
}

type RefreshResult struct {
	Pair *tokenPair
}

type refreshService struct {
	deps Deps
}

func NewRefreshService(deps Deps) RefreshService {
	return &refreshService{deps: deps}
}

// Refresh errors
var (
	ErrInvalidRefreshToken = fmt.Errorf("invalid refresh token")
	ErrRefreshTokenRevoked = fmt.Errorf("refresh token revoked")
	ErrRefreshTokenExpired = fmt.Errorf("refresh token expired")
)

func (s *refreshService) Refresh(ctx context.Context, rawToken string) (*RefreshResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.refresh"),
		logger.Op("Refresh"),
	)

	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, ErrInvalidRefreshToken
	}

	hash := tokens.SHA256Hex(rawToken)

	// Classification read first so the caller gets a precise reason. The
	// consume below is what actually decides under concurrency.
	existing, err := s.deps.Store.Tokens().GetByHash(ctx, hash)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Debug("unknown refresh token")
			metrics.RecordRefresh("invalid")
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	now := time.Now()
	if existing.RevokedAt != nil {
		log.Info("revoked refresh token presented", logger.UserID(existing.UserID))
		metrics.RecordRefresh("revoked")
		return nil, ErrRefreshTokenRevoked
	}
	if !now.Before(existing.ExpiresAt) {
		log.Debug("expired refresh token", logger.UserID(existing.UserID))
		metrics.RecordRefresh("expired")
		return nil, ErrRefreshTokenExpired
	}

	// Single-success rotation: a concurrent replay of the same token loses
	// this conditional delete and gets rejected.
	consumed, err := s.deps.Store.Tokens().ConsumeByHash(ctx, hash)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Info("refresh token replay detected", logger.UserID(existing.UserID))
			metrics.RecordRefresh("revoked")
			return nil, ErrRefreshTokenRevoked
		}
		return nil, err
	}

	log = log.With(logger.UserID(consumed.UserID))

	user, err := s.deps.Store.Users().GetByID(ctx, consumed.UserID)
	if err != nil {
		log.Warn("refresh for missing user")
		metrics.RecordRefresh("invalid")
		return nil, ErrInvalidRefreshToken
	}
	if !user.IsVerified {
		metrics.RecordRefresh("invalid")
		return nil, ErrAccountDeactivated
	}

	// Preserve the remember-me horizon: a long-lived token rotates into
	// another long-lived one.
	rememberMe := consumed.ExpiresAt.Sub(consumed.IssuedAt) > s.deps.RefreshTTL

	pair, err := issuePair(ctx, s.deps, user.ID, rememberMe)
	if err != nil {
		log.Error("failed to issue tokens", logger.Err(err))
		metrics.RecordRefresh("error")
		return nil, ErrTokenIssueFailed
	}

	metrics.RecordRefresh("ok")
	log.Info("refresh rotated")

	return &RefreshResult{Pair: pair}, nil
}

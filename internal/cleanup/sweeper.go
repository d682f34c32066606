// Package cleanup removes expired refresh tokens and one-time codes in the
// background. The manual trigger endpoint shares RunOnce with the scheduler.
package cleanup

import (
	"context"
	"time"

	"github.com/maticastro/authgate/internal/domain/repository"
	"github.com/maticastro/authgate/internal/metrics"
	"github.com/maticastro/authgate/internal/observability/logger"
)

type Deps struct {
	Tokens   repository.TokenRepository
	Otps     repository.OtpRepository
	Interval time.Duration
}

type Sweeper struct {
	deps Deps
}

// Stats reports what a single sweep removed.
type Stats struct {
	RefreshTokens int `json:"refreshTokens"`
	OtpChallenges int `json:"otpChallenges"`
}

func New(deps Deps) *Sweeper {
	if deps.Interval <= 0 {
		deps.Interval = time.Hour
	}
	return &Sweeper{deps: deps}
}

// Run loops until ctx is done. Errors are logged, never fatal; the next tick
// retries.
func (s *Sweeper) Run(ctx context.Context) error {
	log := logger.L().With(logger.Layer("cleanup"), logger.Component("sweeper"))
	log.Info("sweeper started", logger.String("interval", s.deps.Interval.String()))

	ticker := time.NewTicker(s.deps.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				log.Warn("sweep failed", logger.Err(err))
			}
		}
	}
}

// RunOnce performs a single sweep over both tables.
func (s *Sweeper) RunOnce(ctx context.Context) (Stats, error) {
	log := logger.From(ctx).With(logger.Layer("cleanup"), logger.Op("RunOnce"))

	var stats Stats
	var err error

	stats.RefreshTokens, err = s.deps.Tokens.DeleteExpired(ctx)
	if err != nil {
		return stats, err
	}
	metrics.RecordCleanup("refresh_token", stats.RefreshTokens)

	stats.OtpChallenges, err = s.deps.Otps.DeleteExpired(ctx)
	if err != nil {
		return stats, err
	}
	metrics.RecordCleanup("otp_challenge", stats.OtpChallenges)

	if stats.RefreshTokens > 0 || stats.OtpChallenges > 0 {
		log.Info("sweep done",
			logger.Int("refresh_tokens", stats.RefreshTokens),
			logger.Int("otp_challenges", stats.OtpChallenges),
		)
	}
	return stats, nil
}

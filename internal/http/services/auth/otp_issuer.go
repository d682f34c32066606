package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/maticastro/authgate/internal/domain/repository"
	"github.com/maticastro/authgate/internal/email"
	"github.com/maticastro/authgate/internal/metrics"
	"github.com/maticastro/authgate/internal/observability/logger"
	"github.com/maticastro/authgate/internal/security/otp"
	tokens "github.com/maticastro/authgate/internal/security/token"
)

// issueOtp generates a code for (email, purpose), persists its hash and mails
// it. Persisting supersedes any earlier unconsumed code for the same pair, so
// re-requesting always invalidates the previous code.
func issueOtp(ctx context.Context, deps Deps, to string, purpose repository.OtpPurpose) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.otp"),
		logger.Purpose(string(purpose)),
	)

	code, err := otp.GenerateCode()
	if err != nil {
		return err
	}

	_, err = deps.Store.Otps().Create(ctx, repository.CreateOtpInput{
		ID:        uuid.NewString(),
		Email:     to,
		Purpose:   purpose,
		CodeHash:  tokens.SHA256Hex(code),
		ExpiresAt: time.Now().Add(deps.OtpTTL),
	})
	if err != nil {
		return err
	}

	msg := email.RenderOtp(purpose, code, formatTTL(deps.OtpTTL))
	if err := deps.Sender.Send(to, msg.Subject, msg.HTML, msg.Text); err != nil {
		log.Error("otp mail failed", logger.Err(err))
		return err
	}

	metrics.RecordOtpIssued(string(purpose))
	log.Info("otp issued")
	return nil
}

// formatTTL renders a duration the way it reads in a mail ("10 minutes").
func formatTTL(d time.Duration) string {
	mins := int(d.Minutes())
	switch {
	case mins <= 1:
		return "1 minute"
	case mins >= 60 && mins%60 == 0:
		hours := mins / 60
		if hours == 1 {
			return "1 hour"
		}
		return strconv.Itoa(hours) + " hours"
	default:
		return strconv.Itoa(mins) + " minutes"
	}
}

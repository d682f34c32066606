package auth

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/maticastro/authgate/internal/cache"
	"github.com/maticastro/authgate/internal/domain/repository"
	"github.com/maticastro/authgate/internal/metrics"
	"github.com/maticastro/authgate/internal/observability/logger"
	"github.com/maticastro/authgate/internal/security/password"
	tokens "github.com/maticastro/authgate/internal/security/token"
)

// EmailChangeService runs the staged, authenticated email change: prove
// control of the current address, prove control of the new one, then confirm
// with a new password. The stage pointer lives in the cache; skipping a step
// fails with ErrStepOutOfOrder.
type EmailChangeService interface {
	StartCurrent(ctx context.Context, user *repository.User) error
	VerifyCurrentOtp(ctx context.Context, user *repository.User, code string) error
	StartNew(ctx context.Context, user *repository.User, newEmail string) error
	VerifyNewOtp(ctx context.Context, user *repository.User, code string) error
	Confirm(ctx context.Context, user *repository.User, newPassword, confirmPassword string) error
}

type emailChangeService struct {
	deps Deps
}

func NewEmailChangeService(deps Deps) EmailChangeService {
	return &emailChangeService{deps: deps}
}

// Stages of the email-change session, in order.
const (
	stageStarted         = "started"
	stageCurrentVerified = "current-verified"
	stageNewPending      = "new-pending"
	stageNewVerified     = "new-verified"
)

// emailChangeSession is the cached state between steps.
type emailChangeSession struct {
	Stage    string `json:"stage"`
	NewEmail string `json:"newEmail,omitempty"`
}

func emailChangeKey(userID int64) string {
	return "ecs:" + strconv.FormatInt(userID, 10)
}

func (s *emailChangeService) loadSession(ctx context.Context, userID int64) (*emailChangeSession, error) {
	b, err := s.deps.Cache.Get(ctx, emailChangeKey(userID))
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, ErrStepOutOfOrder
		}
		return nil, err
	}
	var sess emailChangeSession
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, ErrStepOutOfOrder
	}
	return &sess, nil
}

func (s *emailChangeService) saveSession(ctx context.Context, userID int64, sess *emailChangeSession) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.deps.Cache.Set(ctx, emailChangeKey(userID), b, flowStateTTL)
}

func (s *emailChangeService) StartCurrent(ctx context.Context, user *repository.User) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.emailchange"),
		logger.Op("StartCurrent"),
		logger.UserID(user.ID),
	)

	if err := issueOtp(ctx, s.deps, user.Email, repository.OtpEmailChangeCurrent); err != nil {
		return err
	}

	// Starting over discards any previous session state.
	if err := s.saveSession(ctx, user.ID, &emailChangeSession{Stage: stageStarted}); err != nil {
		return err
	}

	log.Info("email change started")
	return nil
}

func (s *emailChangeService) VerifyCurrentOtp(ctx context.Context, user *repository.User, code string) error {
	sess, err := s.loadSession(ctx, user.ID)
	if err != nil {
		return err
	}
	if sess.Stage != stageStarted {
		return ErrStepOutOfOrder
	}

	code = strings.TrimSpace(code)
	err = s.deps.Store.Otps().Consume(ctx, user.Email, repository.OtpEmailChangeCurrent, tokens.SHA256Hex(code))
	if err != nil {
		metrics.RecordOtpVerified(string(repository.OtpEmailChangeCurrent), "invalid")
		if repository.IsNotFound(err) {
			return ErrOtpInvalid
		}
		return err
	}
	metrics.RecordOtpVerified(string(repository.OtpEmailChangeCurrent), "ok")

	return s.saveSession(ctx, user.ID, &emailChangeSession{Stage: stageCurrentVerified})
}

func (s *emailChangeService) StartNew(ctx context.Context, user *repository.User, newEmail string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.emailchange"),
		logger.Op("StartNew"),
		logger.UserID(user.ID),
	)

	sess, err := s.loadSession(ctx, user.ID)
	if err != nil {
		return err
	}
	// Allow retrying with a different address before the new one is
	// verified.
	if sess.Stage != stageCurrentVerified && sess.Stage != stageNewPending {
		return ErrStepOutOfOrder
	}

	newEmail = strings.TrimSpace(strings.ToLower(newEmail))
	if newEmail == "" {
		return ErrMissingFields
	}
	if newEmail == user.Email {
		return ErrEmailAlreadyInUse
	}

	if _, err := s.deps.Store.Users().GetByEmail(ctx, newEmail); err == nil {
		return ErrEmailAlreadyInUse
	} else if !repository.IsNotFound(err) {
		return err
	}

	if err := issueOtp(ctx, s.deps, newEmail, repository.OtpEmailChangeNew); err != nil {
		return err
	}

	if err := s.saveSession(ctx, user.ID, &emailChangeSession{Stage: stageNewPending, NewEmail: newEmail}); err != nil {
		return err
	}

	log.Info("new email pending verification")
	return nil
}

func (s *emailChangeService) VerifyNewOtp(ctx context.Context, user *repository.User, code string) error {
	sess, err := s.loadSession(ctx, user.ID)
	if err != nil {
		return err
	}
	if sess.Stage != stageNewPending || sess.NewEmail == "" {
		return ErrStepOutOfOrder
	}

	code = strings.TrimSpace(code)
	err = s.deps.Store.Otps().Consume(ctx, sess.NewEmail, repository.OtpEmailChangeNew, tokens.SHA256Hex(code))
	if err != nil {
		metrics.RecordOtpVerified(string(repository.OtpEmailChangeNew), "invalid")
		if repository.IsNotFound(err) {
			return ErrOtpInvalid
		}
		return err
	}
	metrics.RecordOtpVerified(string(repository.OtpEmailChangeNew), "ok")

	return s.saveSession(ctx, user.ID, &emailChangeSession{Stage: stageNewVerified, NewEmail: sess.NewEmail})
}

func (s *emailChangeService) Confirm(ctx context.Context, user *repository.User, newPassword, confirmPassword string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.emailchange"),
		logger.Op("Confirm"),
		logger.UserID(user.ID),
	)

	sess, err := s.loadSession(ctx, user.ID)
	if err != nil {
		return err
	}
	if sess.Stage != stageNewVerified || sess.NewEmail == "" {
		return ErrStepOutOfOrder
	}

	if newPassword == "" {
		return ErrMissingFields
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	hash, err := password.Hash(password.Default, newPassword)
	if err != nil {
		return err
	}

	// Atomic: the email and password switch together, and every refresh
	// token of the user dies in the same transaction.
	err = s.deps.Store.Users().UpdateEmailAndPassword(ctx, user.ID, sess.NewEmail, hash)
	if err != nil {
		if repository.IsConflict(err) {
			return ErrEmailAlreadyInUse
		}
		return err
	}
	metrics.RecordRevocations("email_change", 1)

	_ = s.deps.Cache.Delete(ctx, emailChangeKey(user.ID))

	log.Info("email changed", logger.Email(sess.NewEmail))
	return nil
}

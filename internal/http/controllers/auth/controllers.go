// Package auth contains the HTTP controllers of the auth endpoints. They
// decode requests, call the services and translate service errors into the
// HTTP taxonomy. Cookies are set and cleared here, never in the services.
package auth

import (
	"errors"
	"net/http"
	"time"

	apperrors "github.com/maticastro/authgate/internal/http/errors"
	"github.com/maticastro/authgate/internal/http/helpers"
	svc "github.com/maticastro/authgate/internal/http/services/auth"
)

// CookieConfig carries the cookie attributes shared by every controller.
type CookieConfig struct {
	Domain string
	Secure bool
}

// Controllers groups all auth controllers.
type Controllers struct {
	Login       *LoginController
	Refresh     *RefreshController
	Logout      *LogoutController
	Profile     *ProfileController
	Password    *PasswordController
	Register    *RegisterController
	EmailChange *EmailChangeController
}

// NewControllers builds the aggregator.
func NewControllers(s svc.Services, cookies CookieConfig) *Controllers {
	return &Controllers{
		Login:       &LoginController{service: s.Login, cookies: cookies},
		Refresh:     &RefreshController{service: s.Refresh, cookies: cookies},
		Logout:      &LogoutController{service: s.Logout, cookies: cookies},
		Profile:     &ProfileController{},
		Password:    &PasswordController{service: s.Password},
		Register:    &RegisterController{service: s.Registration},
		EmailChange: &EmailChangeController{service: s.EmailChange},
	}
}

// writeServiceError maps service sentinel errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		apperrors.WriteError(w, r, apperrors.ErrMissingFields)
	case errors.Is(err, svc.ErrInvalidCredentials):
		apperrors.WriteError(w, r, apperrors.ErrInvalidCredentials)
	case errors.Is(err, svc.ErrAccountDeactivated):
		apperrors.WriteError(w, r, apperrors.ErrAccountDeactivated)
	case errors.Is(err, svc.ErrInvalidRefreshToken):
		apperrors.WriteError(w, r, apperrors.ErrInvalidRefreshToken)
	case errors.Is(err, svc.ErrRefreshTokenRevoked):
		apperrors.WriteError(w, r, apperrors.ErrRefreshTokenRevoked)
	case errors.Is(err, svc.ErrRefreshTokenExpired):
		apperrors.WriteError(w, r, apperrors.ErrRefreshTokenExpired)
	case errors.Is(err, svc.ErrOtpInvalid):
		apperrors.WriteError(w, r, apperrors.ErrOtpInvalidOrExpired)
	case errors.Is(err, svc.ErrPasswordMismatch):
		apperrors.WriteError(w, r, apperrors.ErrPasswordMismatch)
	case errors.Is(err, svc.ErrEmailAlreadyInUse):
		apperrors.WriteError(w, r, apperrors.ErrEmailAlreadyInUse)
	case errors.Is(err, svc.ErrStepOutOfOrder):
		apperrors.WriteError(w, r, apperrors.ErrStepOutOfOrder)
	default:
		apperrors.WriteError(w, r, apperrors.ErrInternalServerError.WithCause(err))
	}
}

// setSessionCookies attaches both httpOnly session cookies for a fresh pair.
func setSessionCookies(w http.ResponseWriter, cookies CookieConfig, accessToken string, accessExpiresAt time.Time, refreshToken string, refreshTTL time.Duration) {
	http.SetCookie(w, helpers.BuildCookie(
		helpers.AccessCookieName, accessToken,
		cookies.Domain, cookies.Secure,
		time.Until(accessExpiresAt),
	))
	http.SetCookie(w, helpers.BuildCookie(
		helpers.RefreshCookieName, refreshToken,
		cookies.Domain, cookies.Secure,
		refreshTTL,
	))
}

// clearSessionCookies removes both session cookies.
func clearSessionCookies(w http.ResponseWriter, cookies CookieConfig) {
	http.SetCookie(w, helpers.BuildDeletionCookie(helpers.AccessCookieName, cookies.Domain, cookies.Secure))
	http.SetCookie(w, helpers.BuildDeletionCookie(helpers.RefreshCookieName, cookies.Domain, cookies.Secure))
}

// refreshTokenFrom reads the refresh token cookie. The cookie is the only
// accepted transport; tokens are never read from request bodies.
func refreshTokenFrom(r *http.Request) string {
	if ck, err := r.Cookie(helpers.RefreshCookieName); err == nil {
		return ck.Value
	}
	return ""
}

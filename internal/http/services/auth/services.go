// Package auth implements the authentication flows behind the HTTP
// controllers: password login, refresh rotation, logout, registration,
// password recovery and the staged email change.
package auth

import (
	"time"

	"github.com/maticastro/authgate/internal/cache"
	"github.com/maticastro/authgate/internal/email"
	jwtx "github.com/maticastro/authgate/internal/jwt"
	"github.com/maticastro/authgate/internal/store"
)

// Deps contains the shared dependencies of the auth services.
type Deps struct {
	Store  store.Store
	Cache  cache.Client
	Issuer *jwtx.Issuer
	Sender email.Sender

	RefreshTTL         time.Duration
	RefreshTTLRemember time.Duration
	OtpTTL             time.Duration
}

// flowStateTTL bounds how long a half-finished registration or email change
// stays resumable.
const flowStateTTL = 15 * time.Minute

// Services groups all auth domain services.
type Services struct {
	Login        LoginService
	Refresh      RefreshService
	Logout       LogoutService
	Password     PasswordService
	Registration RegistrationService
	EmailChange  EmailChangeService
}

// NewServices builds the aggregator with shared deps.
func NewServices(deps Deps) Services {
	if deps.RefreshTTL <= 0 {
		deps.RefreshTTL = 7 * 24 * time.Hour
	}
	if deps.RefreshTTLRemember <= 0 {
		deps.RefreshTTLRemember = 30 * 24 * time.Hour
	}
	if deps.OtpTTL <= 0 {
		deps.OtpTTL = 10 * time.Minute
	}
	return Services{
		Login:        NewLoginService(deps),
		Refresh:      NewRefreshService(deps),
		Logout:       NewLogoutService(deps),
		Password:     NewPasswordService(deps),
		Registration: NewRegistrationService(deps),
		EmailChange:  NewEmailChangeService(deps),
	}
}

// Package router wires the endpoints, guards and limiters into the chi mux.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/maticastro/authgate/internal/cleanup"
	authctl "github.com/maticastro/authgate/internal/http/controllers/auth"
	apperrors "github.com/maticastro/authgate/internal/http/errors"
	"github.com/maticastro/authgate/internal/http/helpers"
	"github.com/maticastro/authgate/internal/http/middlewares"
	"github.com/maticastro/authgate/internal/rate"
	"github.com/maticastro/authgate/internal/store"
)

// Deps contains everything the router mounts.
type Deps struct {
	Controllers *authctl.Controllers
	Validator   middlewares.SessionValidator
	Sweeper     *cleanup.Sweeper
	Store       store.Store

	// nil limiter disables limiting on that group.
	LoginLimiter rate.Limiter
	OtpLimiter   rate.Limiter

	// Metrics is the /metrics handler; nil hides the endpoint.
	Metrics http.Handler
}

// New builds the HTTP handler.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middlewares.WithRequestID())
	r.Use(middlewares.WithLogging())
	r.Use(middlewares.WithRecover())
	r.Use(middlewares.WithSecurityHeaders())

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		apperrors.WriteError(w, req, apperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		apperrors.WriteError(w, req, apperrors.ErrMethodNotAllowed)
	})

	c := deps.Controllers
	guard := middlewares.RequireSession(deps.Validator)
	loginLimit := middlewares.WithRateLimit(deps.LoginLimiter, middlewares.IPOnlyRateKey)
	otpLimit := middlewares.WithRateLimit(deps.OtpLimiter, middlewares.IPOnlyRateKey)

	r.Route("/auth", func(r chi.Router) {
		// Token responses must never land in a shared cache.
		r.Use(middlewares.WithNoStore())

		r.With(loginLimit).Post("/login", c.Login.Login)
		r.Post("/refresh", c.Refresh.Refresh)
		r.Post("/logout", c.Logout.Logout)
		r.With(guard).Post("/logout-all", c.Logout.LogoutAll)
		r.With(guard).Get("/profile", c.Profile.Profile)

		r.With(otpLimit).Post("/forgot-password", c.Password.Forgot)
		r.With(otpLimit).Post("/verify-otp", c.Password.VerifyOtp)
		r.Post("/reset-password", c.Password.Reset)
		r.With(guard).Post("/change-password", c.Password.Change)

		r.Route("/register", func(r chi.Router) {
			r.With(otpLimit).Post("/email", c.Register.Email)
			r.With(otpLimit).Post("/otp", c.Register.Otp)
			r.Post("/details", c.Register.Details)
		})

		r.Route("/change-email", func(r chi.Router) {
			r.Use(guard)
			r.With(otpLimit).Post("/verify-current", c.EmailChange.VerifyCurrent)
			r.Post("/verify-current-otp", c.EmailChange.VerifyCurrentOtp)
			r.With(otpLimit).Post("/verify-new", c.EmailChange.VerifyNew)
			r.Post("/verify-new-otp", c.EmailChange.VerifyNewOtp)
			r.Post("/confirm", c.EmailChange.Confirm)
		})

		r.With(guard).Post("/cleanup", cleanupHandler(deps.Sweeper))
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readyzHandler(deps.Store))

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	return r
}

func cleanupHandler(sweeper *cleanup.Sweeper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := sweeper.RunOnce(r.Context())
		if err != nil {
			apperrors.WriteError(w, r, apperrors.ErrInternalServerError.WithCause(err))
			return
		}
		helpers.WriteJSON(w, http.StatusOK, stats)
	}
}

func readyzHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			apperrors.WriteError(w, r, apperrors.ErrServiceUnavailable.WithCause(err))
			return
		}
		helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

package middlewares

import (
	"net/http"
	"strconv"

	"github.com/maticastro/authgate/internal/http/errors"
	"github.com/maticastro/authgate/internal/observability/logger"
	"github.com/maticastro/authgate/internal/rate"
)

// RateKeyFunc derives the limiting key for a request.
type RateKeyFunc func(r *http.Request) string

// IPOnlyRateKey keys by client IP. Used for login and the OTP endpoints where
// we do not want to read the body.
func IPOnlyRateKey(r *http.Request) string {
	return clientIP(r)
}

// WithRateLimit rejects requests over the limit with 429. Limiter errors fail
// open: an unreachable Redis must not take the login path down with it.
func WithRateLimit(limiter rate.Limiter, keyFunc RateKeyFunc) Middleware {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if keyFunc == nil {
		keyFunc = IPOnlyRateKey
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := limiter.Allow(r.Context(), keyFunc(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter error", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			if !res.Allowed {
				if res.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
				}
				errors.WriteError(w, r, errors.ErrRateLimitExceeded)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			next.ServeHTTP(w, r)
		})
	}
}

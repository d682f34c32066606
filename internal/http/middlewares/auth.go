package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/maticastro/authgate/internal/domain/repository"
	"github.com/maticastro/authgate/internal/http/errors"
	"github.com/maticastro/authgate/internal/http/helpers"
)

// SessionValidator checks an access token and resolves the live user behind
// it. Implemented by the session service.
type SessionValidator interface {
	Validate(ctx context.Context, rawToken string) (*repository.User, error)
}

// extractAccessToken prefers the session cookie, falling back to
// Authorization: Bearer for non-browser clients.
func extractAccessToken(r *http.Request) string {
	if ck, err := r.Cookie(helpers.AccessCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(ah) > 7 && strings.EqualFold(ah[:7], "bearer ") {
		return strings.TrimSpace(ah[7:])
	}
	return ""
}

// RequireSession validates the access token AND that the user still has a
// live session, then stores the user in the context. Responds 401 otherwise.
func RequireSession(validator SessionValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractAccessToken(r)
			if raw == "" {
				errors.WriteError(w, r, errors.ErrTokenMissing)
				return
			}

			user, err := validator.Validate(r.Context(), raw)
			if err != nil {
				errors.WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

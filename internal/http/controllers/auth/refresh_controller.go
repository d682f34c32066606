package auth

import (
	"net/http"

	dto "github.com/maticastro/authgate/internal/http/dto/auth"
	apperrors "github.com/maticastro/authgate/internal/http/errors"
	"github.com/maticastro/authgate/internal/http/helpers"
	svc "github.com/maticastro/authgate/internal/http/services/auth"
)

// RefreshController handles POST /auth/refresh.
type RefreshController struct {
	service svc.RefreshService
	cookies CookieConfig
}

func (c *RefreshController) Refresh(w http.ResponseWriter, r *http.Request) {
	// The token is read from the cookie only; request bodies are ignored.
	raw := refreshTokenFrom(r)
	if raw == "" {
		apperrors.WriteError(w, r, apperrors.ErrInvalidRefreshToken)
		return
	}

	result, err := c.service.Refresh(r.Context(), raw)
	if err != nil {
		// A dead refresh token means the session is over: clear the
		// cookies so the browser stops retrying.
		clearSessionCookies(w, c.cookies)
		writeServiceError(w, r, err)
		return
	}

	setSessionCookies(w, c.cookies,
		result.Pair.AccessToken, result.Pair.AccessExpiresAt,
		result.Pair.RefreshToken, result.Pair.RefreshTTL,
	)

	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "Session refreshed."})
}

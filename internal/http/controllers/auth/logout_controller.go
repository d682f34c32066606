package auth

import (
	"net/http"

	dto "github.com/maticastro/authgate/internal/http/dto/auth"
	apperrors "github.com/maticastro/authgate/internal/http/errors"
	"github.com/maticastro/authgate/internal/http/helpers"
	"github.com/maticastro/authgate/internal/http/middlewares"
	svc "github.com/maticastro/authgate/internal/http/services/auth"
)

// LogoutController handles POST /auth/logout and POST /auth/logout-all.
type LogoutController struct {
	service svc.LogoutService
	cookies CookieConfig
}

// Logout ends the presented session. It never fails visibly: whatever the
// body or cookie contains, the response is 200 and both cookies are cleared.
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	_ = c.service.Logout(r.Context(), refreshTokenFrom(r))

	clearSessionCookies(w, c.cookies)
	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "Logged out."})
}

// LogoutAll revokes every session of the authenticated user.
func (c *LogoutController) LogoutAll(w http.ResponseWriter, r *http.Request) {
	user := middlewares.GetUser(r.Context())
	if user == nil {
		apperrors.WriteError(w, r, apperrors.ErrUnauthorized)
		return
	}

	if _, err := c.service.LogoutAll(r.Context(), user.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	clearSessionCookies(w, c.cookies)
	helpers.WriteJSON(w, http.StatusOK, dto.ReauthResponse{
		Message:        "All sessions revoked.",
		RequiresReauth: true,
	})
}

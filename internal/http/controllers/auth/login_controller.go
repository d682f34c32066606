package auth

import (
	"net/http"

	dto "github.com/maticastro/authgate/internal/http/dto/auth"
	"github.com/maticastro/authgate/internal/http/helpers"
	svc "github.com/maticastro/authgate/internal/http/services/auth"
)

// LoginController handles POST /auth/login.
type LoginController struct {
	service svc.LoginService
	cookies CookieConfig
}

func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	result, err := c.service.LoginPassword(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	setSessionCookies(w, c.cookies,
		result.Pair.AccessToken, result.Pair.AccessExpiresAt,
		result.Pair.RefreshToken, result.Pair.RefreshTTL,
	)

	// Tokens ride only on the cookies above, never in the body.
	helpers.WriteJSON(w, http.StatusOK, dto.LoginResponse{User: result.User})
}

package auth

import (
	"net/http"

	dto "github.com/maticastro/authgate/internal/http/dto/auth"
	apperrors "github.com/maticastro/authgate/internal/http/errors"
	"github.com/maticastro/authgate/internal/http/helpers"
	"github.com/maticastro/authgate/internal/http/middlewares"
)

// ProfileController handles GET /auth/profile. The session guard already
// resolved the user; this just shapes the response.
type ProfileController struct{}

func (c *ProfileController) Profile(w http.ResponseWriter, r *http.Request) {
	user := middlewares.GetUser(r.Context())
	if user == nil {
		apperrors.WriteError(w, r, apperrors.ErrUnauthorized)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.ProfileResponse{User: user.Public()})
}

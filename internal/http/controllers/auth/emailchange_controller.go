package auth

import (
	"net/http"

	"github.com/maticastro/authgate/internal/domain/repository"
	dto "github.com/maticastro/authgate/internal/http/dto/auth"
	apperrors "github.com/maticastro/authgate/internal/http/errors"
	"github.com/maticastro/authgate/internal/http/helpers"
	"github.com/maticastro/authgate/internal/http/middlewares"
	svc "github.com/maticastro/authgate/internal/http/services/auth"
)

// EmailChangeController handles the staged email change. Every endpoint runs
// behind the session guard.
type EmailChangeController struct {
	service svc.EmailChangeService
}

func (c *EmailChangeController) user(w http.ResponseWriter, r *http.Request) *repository.User {
	user := middlewares.GetUser(r.Context())
	if user == nil {
		apperrors.WriteError(w, r, apperrors.ErrUnauthorized)
	}
	return user
}

// VerifyCurrent starts the flow: a code goes to the current address.
func (c *EmailChangeController) VerifyCurrent(w http.ResponseWriter, r *http.Request) {
	user := c.user(w, r)
	if user == nil {
		return
	}

	if err := c.service.StartCurrent(r.Context(), user); err != nil {
		writeServiceError(w, r, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse{
		Message: "A verification code has been sent to your current email.",
	})
}

func (c *EmailChangeController) VerifyCurrentOtp(w http.ResponseWriter, r *http.Request) {
	user := c.user(w, r)
	if user == nil {
		return
	}

	var req dto.EmailChangeOtpRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	if err := c.service.VerifyCurrentOtp(r.Context(), user, req.Otp); err != nil {
		writeServiceError(w, r, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "Current email verified."})
}

func (c *EmailChangeController) VerifyNew(w http.ResponseWriter, r *http.Request) {
	user := c.user(w, r)
	if user == nil {
		return
	}

	var req dto.EmailChangeNewEmailRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	if err := c.service.StartNew(r.Context(), user, req.NewEmail); err != nil {
		writeServiceError(w, r, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse{
		Message: "A verification code has been sent to the new email.",
	})
}

func (c *EmailChangeController) VerifyNewOtp(w http.ResponseWriter, r *http.Request) {
	user := c.user(w, r)
	if user == nil {
		return
	}

	var req dto.EmailChangeOtpRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	if err := c.service.VerifyNewOtp(r.Context(), user, req.Otp); err != nil {
		writeServiceError(w, r, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "New email verified."})
}

// Confirm finishes the flow: new email and new password land atomically, and
// every session of the user is revoked.
func (c *EmailChangeController) Confirm(w http.ResponseWriter, r *http.Request) {
	user := c.user(w, r)
	if user == nil {
		return
	}

	var req dto.EmailChangeConfirmRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	if err := c.service.Confirm(r.Context(), user, req.NewPassword, req.ConfirmPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.ReauthResponse{
		Message:        "Email changed. Sign in with the new email and password.",
		RequiresReauth: true,
	})
}

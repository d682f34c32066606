package auth

import (
	"net/http"

	dto "github.com/maticastro/authgate/internal/http/dto/auth"
	"github.com/maticastro/authgate/internal/http/helpers"
	svc "github.com/maticastro/authgate/internal/http/services/auth"
)

// RegisterController handles the three registration steps.
type RegisterController struct {
	service svc.RegistrationService
}

func (c *RegisterController) Email(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterEmailRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	if err := c.service.StartEmail(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse{
		Message: "A verification code has been sent.",
	})
}

func (c *RegisterController) Otp(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterOtpRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	if err := c.service.VerifyEmailOtp(r.Context(), req.Email, req.Otp); err != nil {
		writeServiceError(w, r, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "Email verified."})
}

func (c *RegisterController) Details(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterDetailsRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	user, err := c.service.CompleteDetails(r.Context(), req.Email, req.Username, req.Password, req.ConfirmPassword)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, dto.ProfileResponse{User: user})
}

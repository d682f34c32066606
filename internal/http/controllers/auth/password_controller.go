package auth

import (
	"net/http"

	dto "github.com/maticastro/authgate/internal/http/dto/auth"
	apperrors "github.com/maticastro/authgate/internal/http/errors"
	"github.com/maticastro/authgate/internal/http/helpers"
	"github.com/maticastro/authgate/internal/http/middlewares"
	svc "github.com/maticastro/authgate/internal/http/services/auth"
)

// PasswordController handles the recovery flow and the authenticated password
// change.
type PasswordController struct {
	service svc.PasswordService
}

// Forgot always answers 200 with the same message, registered or not.
func (c *PasswordController) Forgot(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	if err := c.service.Forgot(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse{
		Message: "If the address is registered, a reset code has been sent.",
	})
}

func (c *PasswordController) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyOtpRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	if err := c.service.VerifyResetOtp(r.Context(), req.Email, req.Otp); err != nil {
		writeServiceError(w, r, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "Code verified."})
}

func (c *PasswordController) Reset(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	err := c.service.ResetPassword(r.Context(), req.Email, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.ReauthResponse{
		Message:        "Password reset. Sign in with the new password.",
		RequiresReauth: true,
	})
}

func (c *PasswordController) Change(w http.ResponseWriter, r *http.Request) {
	user := middlewares.GetUser(r.Context())
	if user == nil {
		apperrors.WriteError(w, r, apperrors.ErrUnauthorized)
		return
	}

	var req dto.ChangePasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	err := c.service.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.ReauthResponse{
		Message:        "Password changed. Sign in with the new password.",
		RequiresReauth: true,
	})
}

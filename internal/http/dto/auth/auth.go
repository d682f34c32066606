// Package auth defines the request/response shapes of the auth endpoints.
// Tokens never appear in any of these: they travel exclusively through the
// httpOnly session cookies.
package auth

import (
	"github.com/maticastro/authgate/internal/domain/repository"
)

// ─── requests ───

type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type VerifyOtpRequest struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

type ResetPasswordRequest struct {
	Email           string `json:"email"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type RegisterEmailRequest struct {
	Email string `json:"email"`
}

type RegisterOtpRequest struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

type RegisterDetailsRequest struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type EmailChangeOtpRequest struct {
	Otp string `json:"otp"`
}

type EmailChangeNewEmailRequest struct {
	NewEmail string `json:"newEmail"`
}

type EmailChangeConfirmRequest struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ─── responses ───

type LoginResponse struct {
	User *repository.PublicView `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ReauthResponse is returned by operations that revoke every session of the
// user; the client must send them back through login.
type ReauthResponse struct {
	Message        string `json:"message"`
	RequiresReauth bool   `json:"requiresReauth"`
}

type ProfileResponse struct {
	User *repository.PublicView `json:"user"`
}

package email

import (
	"fmt"
	"strings"

	"github.com/maticastro/authgate/internal/domain/repository"
)

// Message is a rendered mail ready for a Sender.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

var otpSubjects = map[repository.OtpPurpose]string{
	repository.OtpPasswordReset:      "Your password reset code",
	repository.OtpRegistration:       "Verify your email address",
	repository.OtpEmailChangeCurrent: "Confirm your email change",
	repository.OtpEmailChangeNew:     "Verify your new email address",
}

var otpIntros = map[repository.OtpPurpose]string{
	repository.OtpPasswordReset:      "Use this code to reset your password.",
	repository.OtpRegistration:       "Use this code to finish creating your account.",
	repository.OtpEmailChangeCurrent: "Use this code to confirm the email change on your account.",
	repository.OtpEmailChangeNew:     "Use this code to verify your new email address.",
}

const otpHTMLTemplate = `<!DOCTYPE html>
<html>
  <body style="font-family: sans-serif; color: #1a1a1a;">
    <p>%s</p>
    <p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">%s</p>
    <p>The code expires in %s. If you did not request it, you can ignore this email.</p>
  </body>
</html>`

// RenderOtp builds the mail for a one-time code of the given purpose.
func RenderOtp(purpose repository.OtpPurpose, code string, ttl string) Message {
	subject, ok := otpSubjects[purpose]
	if !ok {
		subject = "Your verification code"
	}
	intro, ok := otpIntros[purpose]
	if !ok {
		intro = "Use this code to continue."
	}

	var text strings.Builder
	text.WriteString(intro)
	text.WriteString("\n\nCode: ")
	text.WriteString(code)
	text.WriteString("\n\nThe code expires in ")
	text.WriteString(ttl)
	text.WriteString(". If you did not request it, you can ignore this email.\n")

	return Message{
		Subject: subject,
		HTML:    fmt.Sprintf(otpHTMLTemplate, intro, code, ttl),
		Text:    text.String(),
	}
}

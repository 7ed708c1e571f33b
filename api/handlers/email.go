package handlers

import (
	"fmt"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	templates "github.com/neurocare/portal-api/templates/html"
)

// sendWelcomeEmail sends the post-signup welcome mail in the background.
// Delivery is best effort; signup never fails on it.
func sendWelcomeEmail(name, email, role string) {
	defer func() {
		if r := recover(); r != nil {
			zap.S().Errorw("panic in sendWelcomeEmail", "email", email, "panic", r)
		}
	}()

	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		zap.S().Debug("SENDGRID_API_KEY not set, skipping welcome email")
		return
	}

	subject := "Welcome to NeuroCare Portal"
	body := fmt.Sprintf("Hi %s,\n\nYour %s account has been created. You can sign in with this email address any time.\n\nIf you did not create this account, please contact support.", name, role)

	from := mail.NewEmail("NeuroCare Portal", "no-reply@neurocare-portal.com")
	to := mail.NewEmail(name, email)
	message := mail.NewSingleEmail(from, subject, to, body, templates.RenderGenericEmail(subject, body))

	client := sendgrid.NewSendClient(apiKey)
	resp, err := client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send welcome email", "email", email, "error", err)
		return
	}
	if resp.StatusCode >= 300 {
		zap.S().Errorw("welcome email rejected", "email", email, "status", resp.StatusCode)
	}
}

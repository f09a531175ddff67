package mail

import (
	"fmt"
	"net/smtp"

	"github.com/quotebeam/quotebeam/internal/pkg/applog"
	"github.com/quotebeam/quotebeam/internal/pkg/env"
)

// SendMail sends an email via SMTP
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		applog.GetLogger().Warnf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		applog.GetLogger().Errorf("SMTP send error: %v", err)
	} else {
		applog.GetLogger().Infof("Email sent to %s via %s", to, addr)
	}
	return err
}

// SendTenantWelcome notifies a freshly provisioned owner about their portal.
// Callers treat this as fire-and-forget; a lost welcome email never fails
// the activation pipeline.
func SendTenantWelcome(to, handle, loginURL string) error {
	subject := "Your QuoteBeam portal is ready"
	body := fmt.Sprintf(
		"<p>Your solar quote portal <strong>%s</strong> is live.</p>"+
			"<p>Sign in here: <a href=\"%s\">%s</a></p>",
		handle, loginURL, loginURL,
	)
	return SendMail(to, subject, body)
}

package mailer

import "github.com/newit5s/tablebook/pkg/logger"

// DevMailer logs messages instead of sending them. Useful for local
// development without an SMTP server running.
type DevMailer struct{}

func (DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	logger.Info("dev mailer: message not sent",
		"to", toEmail,
		"subject", subject,
		"text", text)
	return "", nil
}

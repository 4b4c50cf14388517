package auth

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// MailConfig holds the settings the mailer needs.
type MailConfig struct {
	BaseURL  string
	DevMode  bool
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string
}

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends magic link emails.
type Mailer struct {
	config MailConfig
	send   sendFunc
}

// NewMailer creates a mailer with the given config.
func NewMailer(config MailConfig) *Mailer {
	return &Mailer{config: config, send: smtp.SendMail}
}

// SendMagicLink sends a magic link email or logs it in dev mode.
// Returns the magic link URL.
func (m *Mailer) SendMagicLink(email, token string) (string, error) {
	link := fmt.Sprintf("%s/api/auth/verify?token=%s", strings.TrimRight(m.config.BaseURL, "/"), token)

	if m.config.DevMode {
		slog.Info("magic link (dev mode, not sent)", "email", email, "link", link)
		return link, nil
	}

	subject := "Ort Realty login link"
	body := fmt.Sprintf(
		"Open the link below to get an API key for Ort Realty:\n\n%s\n\nThis link expires in 15 minutes and can only be used once.",
		link,
	)

	msg := buildEmail(m.config.SMTPFrom, email, subject, body)
	addr := fmt.Sprintf("%s:%s", m.config.SMTPHost, m.config.SMTPPort)
	var auth smtp.Auth
	if m.config.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.config.SMTPUser, m.config.SMTPPass, m.config.SMTPHost)
	}

	if err := m.send(addr, auth, m.config.SMTPFrom, []string{email}, msg); err != nil {
		return "", fmt.Errorf("sending email: %w", err)
	}

	return link, nil
}

func buildEmail(from, to, subject, body string) []byte {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", to))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return []byte(sb.String())
}

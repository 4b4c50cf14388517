// Package email formats and sends listing notifications over SMTP.
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"log/slog"
	"math"
	"net/smtp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ortrealty/ort/internal/inquiry"
	"github.com/ortrealty/ort/internal/property"
)

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// IsConfigured returns true if SMTP settings are present.
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.From != ""
}

// FormatInquiry builds the subject and plain-text body telling a listing
// owner about a new inquiry.
func FormatInquiry(p *property.Property, q *inquiry.Inquiry, baseURL string) (string, string) {
	subject := fmt.Sprintf("New inquiry about %s", p.Title)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Hi,\n\n%s sent an inquiry about your listing #%d:\n\n", orAnonymous(q.Author), p.ID)
	fmt.Fprintf(&buf, "  %s\n", p.Title)
	fmt.Fprintf(&buf, "  %s, %s\n", p.Address, p.City)

	details := []string{"$" + formatWithCommas(p.Price)}
	if p.Bedrooms != nil {
		details = append(details, fmt.Sprintf("%d bed", *p.Bedrooms))
	}
	if p.Bathrooms != nil {
		details = append(details, fmt.Sprintf("%g bath", *p.Bathrooms))
	}
	if p.SquareFeet != nil {
		details = append(details, fmt.Sprintf("%s sqft", formatWithCommas(float64(*p.SquareFeet))))
	}
	fmt.Fprintf(&buf, "  %s\n\n", strings.Join(details, " | "))

	for _, line := range strings.Split(strings.TrimSpace(q.Message), "\n") {
		fmt.Fprintf(&buf, "> %s\n", line)
	}

	if baseURL != "" {
		fmt.Fprintf(&buf, "\nAll inquiries: %s/api/properties/%d/inquiries\n", strings.TrimRight(baseURL, "/"), p.ID)
	}

	fmt.Fprintf(&buf, "\nOrt Realty\n")

	return subject, buf.String()
}

// Send sends an email via SMTP.
// Supports both port 465 (implicit TLS) and port 587 (STARTTLS).
func Send(cfg SMTPConfig, to []string, subject, body string) error {
	if !cfg.IsConfigured() {
		return fmt.Errorf("SMTP not configured")
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		cfg.From,
		strings.Join(to, ", "),
		subject,
		body,
	)

	addr := cfg.Host + ":" + cfg.Port

	if cfg.Port == "465" {
		return sendImplicitTLS(cfg, addr, to, msg)
	}
	return sendSTARTTLS(cfg, addr, to, msg)
}

// sendImplicitTLS connects over TLS directly (port 465/SMTPS).
func sendImplicitTLS(cfg SMTPConfig, addr string, to []string, msg string) (err error) {
	tlsCfg := &tls.Config{ServerName: cfg.Host}
	conn, err := tls.Dial("tcp", addr, tlsCfg)
	if err != nil {
		return fmt.Errorf("TLS dial: %w", err)
	}

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer func() {
		if quitErr := c.Quit(); quitErr != nil && err == nil {
			err = fmt.Errorf("quit: %w", quitErr)
		}
	}()

	if cfg.User != "" {
		auth := smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return nil
}

// sendSTARTTLS connects plain then upgrades to TLS (port 587).
func sendSTARTTLS(cfg SMTPConfig, addr string, to []string, msg string) error {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, cfg.From, to, []byte(msg)); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

// Notifier emails listing owners about activity on their listings.
type Notifier struct {
	cfg     SMTPConfig
	baseURL string
	devMode bool
	send    func(cfg SMTPConfig, to []string, subject, body string) error
}

// NewNotifier creates a notifier. In dev mode messages are logged, not sent.
func NewNotifier(cfg SMTPConfig, baseURL string, devMode bool) *Notifier {
	return &Notifier{cfg: cfg, baseURL: baseURL, devMode: devMode, send: Send}
}

// InquiryReceived tells the owner of p about q. Owners are not notified of
// their own inquiries, and nothing is sent when SMTP is unconfigured.
func (n *Notifier) InquiryReceived(p *property.Property, q *inquiry.Inquiry) error {
	if p.OwnerEmail == "" || strings.EqualFold(p.OwnerEmail, q.Author) {
		return nil
	}

	subject, body := FormatInquiry(p, q, n.baseURL)

	if n.devMode {
		slog.Info("inquiry notification (dev mode, not sent)", "to", p.OwnerEmail, "property_id", p.ID, "subject", subject)
		return nil
	}
	if !n.cfg.IsConfigured() {
		slog.Debug("inquiry notification skipped, SMTP not configured", "property_id", p.ID)
		return nil
	}

	if err := n.send(n.cfg, []string{p.OwnerEmail}, subject, body); err != nil {
		return fmt.Errorf("notifying %s: %w", p.OwnerEmail, err)
	}
	return nil
}

func orAnonymous(author string) string {
	if author == "" {
		return "Someone"
	}
	return author
}

func formatWithCommas(v float64) string {
	return message.NewPrinter(language.English).Sprintf("%.0f", math.Round(v))
}

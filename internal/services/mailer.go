package services

import (
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/yukikurage/kanban-api/internal/config"
)

// Mailer delivers transactional mail
type Mailer interface {
	SendPasswordReset(to, resetURL string) error
}

// SMTPMailer sends mail through an SMTP relay
type SMTPMailer struct {
	cfg config.SMTPConfig
}

// NewMailer returns an SMTP mailer, or a mailer that only logs when no SMTP
// host is configured.
func NewMailer(cfg config.SMTPConfig) Mailer {
	if cfg.Host == "" {
		return LogMailer{}
	}
	return &SMTPMailer{cfg: cfg}
}

// SendPasswordReset sends the password reset link
func (m *SMTPMailer) SendPasswordReset(to, resetURL string) error {
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}

	subject := "Reset your password"
	body := fmt.Sprintf("Use the link below to choose a new password. It expires in 60 minutes.\n\n%s\n\nIf you did not request a password reset, you can ignore this email.", resetURL)
	message := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", from, to, subject, body)

	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)
	if err := smtp.SendMail(addr, auth, from, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// LogMailer writes outgoing mail to the log instead of sending it
type LogMailer struct{}

// SendPasswordReset logs the password reset link
func (LogMailer) SendPasswordReset(to, resetURL string) error {
	slog.Info("password reset requested", slog.String("to", to), slog.String("url", resetURL))
	return nil
}

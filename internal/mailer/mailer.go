// Package mailer delivers out-of-band notifications. The only message the
// API sends today is the password-reset link; the Sender interface keeps the
// delivery mechanism swappable and lets tests observe or fail deliveries.
package mailer

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/openvoyage/touring-api/internal/config"
)

// Sender delivers a password-reset link to an address. Implementations must
// return an error when delivery did not happen, because the caller rolls
// back the pending reset token in that case.
type Sender interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

// SMTPSender sends plain-text mail over SMTP.
type SMTPSender struct {
	cfg config.MailConfig
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// SendPasswordReset mails the reset link. The message states the expiry so
// users understand why a stale link stops working.
func (s *SMTPSender) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	subject := "Your password reset token (valid for 10 minutes)"
	body := "Forgot your password? Submit a PATCH request with your new password to:\n\n" +
		resetURL + "\n\nIf you didn't forget your password, please ignore this email."
	return s.send(ctx, to, subject, body)
}

func (s *SMTPSender) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)

	// smtp.SendMail has no context support, so the send runs in its own
	// goroutine and is abandoned when the request deadline passes; the
	// caller then rolls back the reset token instead of blocking on a slow
	// SMTP server.
	done := make(chan error, 1)
	go func() { done <- smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogSender writes the message to the process log instead of delivering it.
// Used in development when no SMTP host is configured.
type LogSender struct{}

func (LogSender) SendPasswordReset(_ context.Context, to, resetURL string) error {
	log.Printf("mailer: password reset for %s -> %s", to, resetURL)
	return nil
}

// FromConfig picks the SMTP sender when a host is configured and the log
// sender otherwise.
func FromConfig(cfg config.MailConfig) Sender {
	if cfg.Host == "" {
		return LogSender{}
	}
	return NewSMTPSender(cfg)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

// Package mail delivers account notification email over SMTP.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"net/url"
	"strings"
	"time"

	"github.com/samber/oops"
)

// Config carries SMTP transport settings and the pieces the message bodies
// need. Username and Password are optional; when Username is empty the
// sender connects without authentication.
type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	FrontendURL string
	ResetTTL    time.Duration
}

// SMTPSender implements auth.EmailSender over net/smtp.
type SMTPSender struct {
	cfg    Config
	logger *slog.Logger
}

// NewSMTPSender creates an SMTPSender. Host, From and FrontendURL are
// required.
func NewSMTPSender(cfg Config, logger *slog.Logger) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("smtp from address is required")
	}
	if cfg.FrontendURL == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("frontend url is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPSender{cfg: cfg, logger: logger}, nil
}

// SendWelcome delivers the welcome notice. The token activates the account
// through the password-reset flow.
func (s *SMTPSender) SendWelcome(ctx context.Context, email, token string) error {
	body := fmt.Sprintf(
		"Welcome to Custos.\r\n\r\n"+
			"An account has been created for %s. Choose your password within "+
			"%s using the link below:\r\n\r\n%s\r\n",
		email, formatTTL(s.cfg.ResetTTL), s.resetLink(token))
	return s.send(ctx, email, "Welcome to Our Platform", body)
}

// SendPasswordReset delivers a reset notice carrying the reset link.
func (s *SMTPSender) SendPasswordReset(ctx context.Context, email, token string) error {
	body := fmt.Sprintf(
		"A password reset was requested for your account.\r\n\r\n"+
			"The link below is valid for %s:\r\n\r\n%s\r\n\r\n"+
			"If you did not request this, you can ignore this message.\r\n",
		formatTTL(s.cfg.ResetTTL), s.resetLink(token))
	return s.send(ctx, email, "Password Reset Request", body)
}

func (s *SMTPSender) resetLink(token string) string {
	return strings.TrimSuffix(s.cfg.FrontendURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
}

func (s *SMTPSender) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return oops.Code("MAIL_SEND_FAILED").With("to", to).Wrap(err)
	}

	msg := buildMessage(s.cfg.From, to, subject, body)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprintf("%d", s.cfg.Port))
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, msg); err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("to", to).
			With("subject", subject).
			Wrap(err)
	}
	s.logger.Debug("email sent", "to", to, "subject", subject)
	return nil
}

// buildMessage assembles an RFC 5322 message with CRLF line endings.
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func formatTTL(ttl time.Duration) string {
	if ttl%time.Hour == 0 {
		hours := int(ttl / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return ttl.String()
}

// LogSender implements auth.EmailSender by logging instead of sending.
// Used in development when no SMTP host is configured; tokens still reach
// the operator through the log.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// SendWelcome logs the welcome notification.
func (s *LogSender) SendWelcome(_ context.Context, email, token string) error {
	s.logger.Info("welcome email suppressed, smtp not configured", "to", email, "token", token)
	return nil
}

// SendPasswordReset logs the reset notification.
func (s *LogSender) SendPasswordReset(_ context.Context, email, token string) error {
	s.logger.Info("reset email suppressed, smtp not configured", "to", email, "token", token)
	return nil
}

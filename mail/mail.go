// Package mail provides MailSender implementations for the coordinator:
// a plain-text SMTP sender and a log-only sender for development.
package mail

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// SMTPConfig configures the SMTP sender.
type SMTPConfig struct {
	Addr     string // host:port
	From     string
	Username string
	Password string
	// BaseURL is the web frontend prefix used to build links in mail.
	BaseURL string
}

// SMTPSender delivers plain-text account mail over SMTP.
type SMTPSender struct {
	config SMTPConfig
	auth   smtp.Auth
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	var auth smtp.Auth
	if cfg.Username != "" {
		host := cfg.Addr
		if idx := strings.IndexByte(host, ':'); idx >= 0 {
			host = host[:idx]
		}
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, host)
	}
	return &SMTPSender{config: cfg, auth: auth}
}

func (s *SMTPSender) SendVerification(ctx context.Context, to, name, verificationToken string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nConfirm your email address by opening this link:\n\n%s/verify-email?email=%s&token=%s\n\nThe link expires in 24 hours.\n",
		name, s.config.BaseURL, to, verificationToken,
	)
	return s.send(ctx, to, "Confirm your email address", body)
}

func (s *SMTPSender) SendPasswordReset(ctx context.Context, to, name, resetToken string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nReset your password by opening this link:\n\n%s/reset-password?email=%s&token=%s\n\nThe link expires in 1 hour. If you did not request this, you can ignore this mail.\n",
		name, s.config.BaseURL, to, resetToken,
	)
	return s.send(ctx, to, "Reset your password", body)
}

func (s *SMTPSender) SendPasswordChanged(ctx context.Context, to, name string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour password was just changed. If this was not you, reset your password immediately.\n",
		name,
	)
	return s.send(ctx, to, "Your password was changed", body)
}

func (s *SMTPSender) SendWelcome(ctx context.Context, to, name string) error {
	body := fmt.Sprintf("Hi %s,\n\nYour email address is confirmed. Welcome aboard!\n", name)
	return s.send(ctx, to, "Welcome", body)
}

func (s *SMTPSender) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := strings.Join([]string{
		"From: " + s.config.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	return smtp.SendMail(s.config.Addr, s.auth, s.config.From, []string{to}, []byte(msg))
}

// LogSender writes mail to the process log instead of delivering it.
// Useful in development and tests.
type LogSender struct{}

func (LogSender) SendVerification(_ context.Context, to, _, verificationToken string) error {
	log.Printf("mail: verification for %s token=%s", to, verificationToken)
	return nil
}

func (LogSender) SendPasswordReset(_ context.Context, to, _, resetToken string) error {
	log.Printf("mail: password reset for %s token=%s", to, resetToken)
	return nil
}

func (LogSender) SendPasswordChanged(_ context.Context, to, _ string) error {
	log.Printf("mail: password changed notice for %s", to)
	return nil
}

func (LogSender) SendWelcome(_ context.Context, to, _ string) error {
	log.Printf("mail: welcome for %s", to)
	return nil
}

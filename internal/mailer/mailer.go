// Package mailer sends the account emails.
package mailer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"customerapp/internal/config"
)

const resetSubject = "Reset Password"

type Mailer interface {
	SendResetPassword(ctx context.Context, to, link string) error
}

// New returns an SMTP mailer, or a LogMailer when no SMTP host is configured.
func New(cfg config.SMTP) Mailer {
	if cfg.Host == "" {
		zap.L().Warn("SMTP_HOST is empty, reset emails will only be logged")
		return LogMailer{}
	}
	return &SMTPMailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
	}
}

type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
}

func (m *SMTPMailer) SendResetPassword(ctx context.Context, to, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(resetMessage(m.from, to, link)); err != nil {
		return fmt.Errorf("send reset email to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes the link to the log instead of sending it.
type LogMailer struct{}

func (LogMailer) SendResetPassword(_ context.Context, to, link string) error {
	zap.L().Info("reset password email", zap.String("to", to), zap.String("link", link))
	return nil
}

func resetMessage(from, to, link string) *gomail.Message {
	m := gomail.NewMessage(gomail.SetEncoding(gomail.Unencoded))
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", resetSubject)
	m.SetBody("text/plain", resetBody(link))
	return m
}

func resetBody(link string) string {
	return "Click the following link to reset your password: " + link
}

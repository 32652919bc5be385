// Package mail provides Mailer implementations for verification code delivery.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"arcana/config"
	"arcana/internal/domain/service"
	"arcana/internal/errors"
)

// New selects a Mailer implementation from config. The log mailer is the
// development default; SMTP requires host and from address.
func New(cfg *config.Config, logger *slog.Logger) (service.Mailer, error) {
	if cfg.Mail == nil || cfg.Mail.Provider == "" || cfg.Mail.Provider == "log" {
		return &logMailer{logger: logger}, nil
	}

	if cfg.Mail.Provider != "smtp" {
		return nil, errors.Errorf("unknown mail provider: %s", cfg.Mail.Provider)
	}
	if cfg.Mail.Host == "" || cfg.Mail.From == "" {
		return nil, errors.New("smtp mailer requires host and from address")
	}

	return &smtpMailer{cfg: cfg.Mail}, nil
}

// logMailer writes the code to the application log instead of sending mail.
type logMailer struct {
	logger *slog.Logger
}

func (m *logMailer) SendVerificationCode(_ context.Context, email, code string, expiresAt time.Time, purpose service.VerificationPurpose) error {
	m.logger.Info("Verification code issued",
		slog.String("email", email),
		slog.String("code", code),
		slog.String("purpose", string(purpose)),
		slog.Time("expires_at", expiresAt),
	)

	return nil
}

// smtpMailer delivers codes over plain SMTP. Template rendering stays
// minimal here; a real deployment swaps in the template collaborator.
type smtpMailer struct {
	cfg *config.MailConfig
}

func (m *smtpMailer) SendVerificationCode(_ context.Context, email, code string, expiresAt time.Time, purpose service.VerificationPurpose) error {
	subject := "Your verification code"
	if purpose == service.PurposeLogin {
		subject = "Your login code"
	}

	body := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\nYour code is %s. It expires at %s.\r\n",
		m.cfg.From, email, subject, code, expiresAt.UTC().Format(time.RFC1123),
	)

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	var mailAuth smtp.Auth
	if m.cfg.Username != "" {
		mailAuth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, mailAuth, m.cfg.From, []string{email}, []byte(body)); err != nil {
		return errors.Wrap(err, "failed to send verification mail")
	}

	return nil
}

package email

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailService defines the interface for email operations
type EmailService interface {
	SendAccountCreated(ctx context.Context, msg AccountCreated) error
}

// AccountCreated is the notice sent to a teacher or student whose account was
// just created by an administrator.
type AccountCreated struct {
	ToEmail  string
	ToName   string
	Role     string
	LoginURL string
}

func (m AccountCreated) subject() string {
	return "Your college ERP account is ready"
}

func (m AccountCreated) text() string {
	return fmt.Sprintf("Hello %s,\n\nAn administrator created a %s account for %s.\nSign in at %s with the password you were given.\n",
		m.ToName, m.Role, m.ToEmail, m.LoginURL)
}

func (m AccountCreated) html() string {
	return fmt.Sprintf(`<html><body><p>Hello %s,</p><p>An administrator created a <strong>%s</strong> account for %s.</p><p><a href="%s">Sign in</a> with the password you were given.</p></body></html>`,
		m.ToName, m.Role, m.ToEmail, m.LoginURL)
}

// Config holds the SendGrid settings.
type Config struct {
	APIKey    string
	FromName  string
	FromEmail string
}

// NewEmailService returns a SendGrid backed service, or a log-only one when no
// API key is configured.
func NewEmailService(config Config, logger zerolog.Logger) EmailService {
	if config.APIKey == "" {
		logger.Warn().Msg("SendGrid API key not configured - emails will only be logged")
		return &logService{logger: logger}
	}
	return &sendgridService{
		client: sendgrid.NewSendClient(config.APIKey),
		from:   sgmail.NewEmail(config.FromName, config.FromEmail),
		logger: logger,
	}
}

type sendgridService struct {
	client *sendgrid.Client
	from   *sgmail.Email
	logger zerolog.Logger
}

func (s *sendgridService) SendAccountCreated(ctx context.Context, msg AccountCreated) error {
	p := sgmail.NewPersonalization()
	p.Subject = msg.subject()
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToEmail))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", msg.text()),
		sgmail.NewContent("text/html", msg.html()),
	)

	res, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		s.logger.Error().Err(err).Str("toEmail", msg.ToEmail).Msg("Failed to send account email")
		return fmt.Errorf("failed to send email: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		s.logger.Error().Int("status", res.StatusCode).Str("body", res.Body).Str("toEmail", msg.ToEmail).Msg("SendGrid rejected account email")
		return fmt.Errorf("sendgrid returned status %d", res.StatusCode)
	}
	return nil
}

type logService struct {
	logger zerolog.Logger
}

func (s *logService) SendAccountCreated(_ context.Context, msg AccountCreated) error {
	s.logger.Info().
		Str("toEmail", msg.ToEmail).
		Str("role", msg.Role).
		Str("loginURL", msg.LoginURL).
		Msg("Account created email not sent (no SendGrid key)")
	return nil
}

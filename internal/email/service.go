// Package email delivers account notifications. Delivery is best-effort by
// policy: the login flow logs failures and never propagates them, so a down
// mail provider cannot reject a login response.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/mail"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/saudievents/server/internal/config"
)

// Service sends transactional email through the configured provider.
type Service struct {
	config       config.EmailConfig
	resendClient *resend.Client
	templates    *template.Template
	logger       zerolog.Logger
}

// LockoutAlertData feeds the lockout alert template.
type LockoutAlertData struct {
	Attempts    int
	CurrentYear int
}

const lockoutAlertTemplate = `<html>
<body>
  <p>There were {{.Attempts}} failed login attempts to your account, and it has
  been temporarily locked.</p>
  <p>If this wasn't you, please contact support.</p>
  <p>&copy; {{.CurrentYear}} Saudi Events</p>
</body>
</html>`

// NewService creates an email service. With cfg.Enabled false every send is
// logged and skipped, which keeps local development mail-free.
func NewService(cfg config.EmailConfig, logger zerolog.Logger) (*Service, error) {
	if cfg.Enabled {
		if err := validateEmailAddress(cfg.From); err != nil {
			return nil, fmt.Errorf("invalid sender email in config: %w", err)
		}
	}

	templates, err := template.New("lockout_alert.html").Parse(lockoutAlertTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}

	s := &Service{
		config:    cfg,
		templates: templates,
		logger:    logger.With().Str("component", "email").Logger(),
	}
	if cfg.Enabled && cfg.Provider == "resend" {
		s.resendClient = resend.NewClient(cfg.ResendAPIKey)
	}
	return s, nil
}

// SendLockoutAlert notifies an account holder that repeated failed logins
// locked their account.
func (s *Service) SendLockoutAlert(ctx context.Context, to string, attempts int) error {
	if err := validateEmailAddress(to); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	if !s.config.Enabled {
		s.logger.Info().
			Str("to", to).
			Int("attempts", attempts).
			Msg("email service disabled, skipping lockout alert")
		return nil
	}

	data := LockoutAlertData{
		Attempts:    attempts,
		CurrentYear: time.Now().Year(),
	}
	htmlBody, err := s.renderTemplate("lockout_alert.html", data)
	if err != nil {
		return fmt.Errorf("render lockout alert template: %w", err)
	}

	subject := "Multiple failed login attempts"
	if err := s.send(ctx, to, subject, htmlBody); err != nil {
		return fmt.Errorf("send lockout alert: %w", err)
	}

	s.logger.Info().
		Str("to", to).
		Int("attempts", attempts).
		Msg("lockout alert sent")
	return nil
}

func (s *Service) send(ctx context.Context, to, subject, htmlBody string) error {
	switch s.config.Provider {
	case "resend":
		return s.sendViaResend(ctx, to, subject, htmlBody)
	case "smtp":
		return s.sendViaSMTP(to, subject, htmlBody)
	default:
		return fmt.Errorf("unknown email provider %q", s.config.Provider)
	}
}

func (s *Service) renderTemplate(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

// validateEmailAddress checks format and rejects header injection attempts.
func validateEmailAddress(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}
	return nil
}

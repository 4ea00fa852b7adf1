package services

import (
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/HelieAriane/Clanimo/internal/config"
	"github.com/HelieAriane/Clanimo/internal/logging"
)

// EmailProvider sends a single transactional email.
type EmailProvider interface {
	Send(to, subject, htmlBody string) error
}

// NewEmailProvider selects a provider from config. An empty provider string
// disables email entirely.
func NewEmailProvider(cfg config.EmailConfig, logger *logging.Logger) EmailProvider {
	switch cfg.Provider {
	case "resend":
		if cfg.ResendAPIKey == "" {
			logger.Warn("resend selected but RESEND_API_KEY is empty, falling back to console")
			return &ConsoleEmailProvider{logger: logger}
		}
		return NewResendProvider(cfg)
	case "console":
		return &ConsoleEmailProvider{logger: logger}
	default:
		return nil
	}
}

// ResendProvider delivers through the Resend API.
type ResendProvider struct {
	client *resend.Client
	from   string
}

func NewResendProvider(cfg config.EmailConfig) *ResendProvider {
	return &ResendProvider{
		client: resend.NewClient(cfg.ResendAPIKey),
		from:   fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress),
	}
}

func (p *ResendProvider) Send(to, subject, htmlBody string) error {
	_, err := p.client.Emails.Send(&resend.SendEmailRequest{
		From:    p.from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	})
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

// ConsoleEmailProvider logs instead of sending. Development only.
type ConsoleEmailProvider struct {
	logger *logging.Logger
}

func (p *ConsoleEmailProvider) Send(to, subject, _ string) error {
	p.logger.Info("email (console)", map[string]interface{}{
		"to":      to,
		"subject": subject,
	})
	return nil
}

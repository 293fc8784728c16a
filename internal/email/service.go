package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/mail"

	"github.com/campus-events/server/internal/config"
	"github.com/campus-events/server/internal/domain/events"
	"github.com/campus-events/server/internal/metrics"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

// Service sends registration confirmation emails through Resend. When
// disabled in config it logs instead of sending, so the registration
// path behaves identically in development.
type Service struct {
	config       config.EmailConfig
	resendClient *resend.Client
	template     *template.Template
	logger       zerolog.Logger
}

type confirmationData struct {
	Name             string
	EventTitle       string
	EventDate        string
	EventTime        string
	Location         string
	ConfirmationCode string
}

const confirmationTemplate = `<h2>You're registered!</h2>
<p>Hi {{.Name}},</p>
<p>Your spot at <strong>{{.EventTitle}}</strong> is confirmed.</p>
<ul>
  <li>Date: {{.EventDate}}{{if .EventTime}} at {{.EventTime}}{{end}}</li>
  {{if .Location}}<li>Location: {{.Location}}</li>{{end}}
</ul>
<p>Confirmation code: <code>{{.ConfirmationCode}}</code></p>
`

func NewService(cfg config.EmailConfig, logger zerolog.Logger) (*Service, error) {
	if cfg.Enabled {
		if _, err := mail.ParseAddress(cfg.From); err != nil {
			return nil, fmt.Errorf("invalid sender email in config: %w", err)
		}
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("email enabled but resend api key is empty")
		}
	}

	tmpl, err := template.New("confirmation").Parse(confirmationTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse confirmation template: %w", err)
	}

	svc := &Service{
		config:   cfg,
		template: tmpl,
		logger:   logger.With().Str("component", "email").Logger(),
	}
	if cfg.Enabled {
		svc.resendClient = resend.NewClient(cfg.ResendAPIKey)
	}
	return svc, nil
}

// RegistrationConfirmed sends the confirmation for one registration.
func (s *Service) RegistrationConfirmed(ctx context.Context, to, name string, event events.Event, confirmationCode string) error {
	if _, err := mail.ParseAddress(to); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	if !s.config.Enabled {
		s.logger.Info().
			Str("to", to).
			Int64("event_id", event.ID).
			Msg("email service disabled, skipping confirmation email")
		metrics.EmailsSent.WithLabelValues("skipped").Inc()
		return nil
	}

	var body bytes.Buffer
	err := s.template.Execute(&body, confirmationData{
		Name:             name,
		EventTitle:       event.Title,
		EventDate:        event.EventDate.Format("Monday, January 2, 2006"),
		EventTime:        event.EventTime,
		Location:         event.Location,
		ConfirmationCode: confirmationCode,
	})
	if err != nil {
		return fmt.Errorf("render confirmation template: %w", err)
	}

	sent, err := s.resendClient.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.config.From,
		To:      []string{to},
		Subject: fmt.Sprintf("Registration confirmed: %s", event.Title),
		Html:    body.String(),
	})
	if err != nil {
		metrics.EmailsSent.WithLabelValues("error").Inc()
		return fmt.Errorf("resend API error: %w", err)
	}

	metrics.EmailsSent.WithLabelValues("sent").Inc()
	s.logger.Info().
		Str("email_id", sent.Id).
		Str("to", to).
		Int64("event_id", event.ID).
		Msg("confirmation email sent")
	return nil
}

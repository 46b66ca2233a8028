package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/averyross/bookhaven-backend/pkg/config"
	"github.com/averyross/bookhaven-backend/pkg/logger"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const fromName = "BookHaven"

// Mailer sends transactional email to buyers.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type client struct {
	apiKey string
	from   string
	logg   *logger.Logger
}

// New constructs a SendGrid-backed mailer. When no API key is configured the
// mailer logs and drops outgoing mail instead of failing, so dev environments
// work without credentials.
func New(cfg config.SendgridConfig, logg *logger.Logger) (Mailer, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if strings.TrimSpace(cfg.DefaultFrom) == "" {
		return nil, fmt.Errorf("default from address is required")
	}
	return &client{
		apiKey: strings.TrimSpace(cfg.APIKey),
		from:   cfg.DefaultFrom,
		logg:   logg,
	}, nil
}

func (c *client) Send(ctx context.Context, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("to address is required")
	}

	if c.apiKey == "" {
		c.logg.Warn(c.logg.WithFields(ctx, map[string]any{"to": to, "subject": subject}),
			"sendgrid api key not configured, dropping mail")
		return nil
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(fromName, c.from),
		subject,
		mail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", body),
	)

	resp, err := sendgrid.NewSendClient(c.apiKey).SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d body=%s", resp.StatusCode, resp.Body)
	}

	c.logg.Info(c.logg.WithFields(ctx, map[string]any{"to": to, "status": resp.StatusCode}), "mail sent")
	return nil
}

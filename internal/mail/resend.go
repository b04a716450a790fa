package mail

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"

	"github.com/ryan-gang/outreach-send/internal/config"
	"github.com/ryan-gang/outreach-send/internal/util"
)

// ResendSender sends through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(cfg config.ResendConfig, fromName string) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(cfg.APIKey),
		from:   fromAddress(fromName, cfg.FromEmail),
	}
}

func (s *ResendSender) Name() string {
	return config.MailResend
}

func (s *ResendSender) Send(ctx context.Context, m Message) error {
	req := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{m.To},
		Subject: m.Subject,
		Html:    m.HTML,
	}
	if _, err := s.client.Emails.SendWithContext(ctx, req); err != nil {
		return util.Permanent("resend.send", fmt.Errorf("resend: failed to send email: %w", err))
	}
	return nil
}

package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ryan-gang/outreach-send/internal/config"
)

// Message is one HTML email to one address.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers messages. Errors carry a util.Kind: transient and
// permanent failures mark the recipient Failed, configuration errors stop
// the run.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// New returns the sender for the configured provider. A dry run always gets
// the simulating sender.
func New(cfg config.MailConfig, logger *slog.Logger) (Sender, error) {
	switch cfg.EffectiveProvider() {
	case config.MailDryRun:
		return NewDryRun(cfg.Outbox, logger), nil
	case config.MailGraph:
		return NewGraphSender(cfg.Graph), nil
	case config.MailResend:
		return NewResendSender(cfg.Resend, cfg.FromName), nil
	case config.MailPostmark:
		return NewPostmarkSender(cfg.Postmark, cfg.FromName), nil
	case config.MailSMTP:
		return NewSMTPSender(cfg.SMTP, cfg.FromName), nil
	}
	return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
}

func fromAddress(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"time"

	gomail "gopkg.in/mail.v2"

	"github.com/ryan-gang/outreach-send/internal/config"
	"github.com/ryan-gang/outreach-send/internal/util"
)

// SMTPSender sends through an SMTP relay.
type SMTPSender struct {
	cfg  config.SMTPConfig
	from string
}

func NewSMTPSender(cfg config.SMTPConfig, fromName string) *SMTPSender {
	return &SMTPSender{cfg: cfg, from: fromAddress(fromName, cfg.From)}
}

func (s *SMTPSender) Name() string {
	return config.MailSMTP
}

func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/html", m.HTML)

	dialer := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Password)
	dialer.Timeout = time.Duration(s.cfg.Timeout) * time.Second

	if err := dialer.DialAndSend(msg); err != nil {
		return classifySMTP(fmt.Errorf("failed to send mail: %w", err))
	}
	return nil
}

// classifySMTP maps reply codes onto error kinds: 4xx replies and network
// failures are transient, authentication failures are configuration errors,
// other 5xx replies are permanent.
func classifySMTP(err error) error {
	const op = "smtp.send"

	var perr *textproto.Error
	if errors.As(err, &perr) {
		switch {
		case perr.Code == 530 || perr.Code == 534 || perr.Code == 535:
			return util.Configuration(op, err)
		case perr.Code >= 400 && perr.Code < 500:
			return util.Transient(op, err)
		}
		return util.Permanent(op, err)
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return util.Transient(op, err)
	}
	return util.Permanent(op, err)
}

package mail

import (
	"context"
	"fmt"

	"github.com/keighl/postmark"

	"github.com/ryan-gang/outreach-send/internal/config"
	"github.com/ryan-gang/outreach-send/internal/util"
)

// postmarkBadToken is the API error code for an invalid server token.
const postmarkBadToken = 10

// PostmarkSender sends through the Postmark API.
type PostmarkSender struct {
	client *postmark.Client
	from   string
	tag    string
}

func NewPostmarkSender(cfg config.PostmarkConfig, fromName string) *PostmarkSender {
	return &PostmarkSender{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		from:   fromAddress(fromName, cfg.FromEmail),
		tag:    cfg.Tag,
	}
}

func (s *PostmarkSender) Name() string {
	return config.MailPostmark
}

func (s *PostmarkSender) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	email := postmark.Email{
		From:       s.from,
		To:         m.To,
		Subject:    m.Subject,
		HtmlBody:   m.HTML,
		Tag:        s.tag,
		TrackOpens: true,
	}
	res, err := s.client.SendEmail(email)
	switch {
	case err == nil:
		return nil
	case res.ErrorCode == postmarkBadToken:
		return util.Configuration("postmark.send", err)
	case res.ErrorCode != 0:
		return util.Permanent("postmark.send", fmt.Errorf("postmark error %d: %w", res.ErrorCode, err))
	}
	return util.Transient("postmark.send", fmt.Errorf("failed to send email via Postmark: %w", err))
}

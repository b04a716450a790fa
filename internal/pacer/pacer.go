package pacer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/ryan-gang/outreach-send/internal/augment"
	"github.com/ryan-gang/outreach-send/internal/mail"
	"github.com/ryan-gang/outreach-send/internal/recipients"
	"github.com/ryan-gang/outreach-send/internal/template"
	"github.com/ryan-gang/outreach-send/internal/util"
)

// ErrMissingAddress marks a recipient whose address cell is empty.
var ErrMissingAddress = errors.New("recipient has no email address")

// sendTimeout bounds one send plus its status writes, which are not
// interrupted by shutdown.
const sendTimeout = 2 * time.Minute

// Stop reasons reported in Result.
const (
	StopCapReached   = "daily limit reached"
	StopNoRecipients = "no unsent recipients"
)

// Options are the field names and modes of a run.
type Options struct {
	StatusField     string
	AddressField    string
	CategoryField   string
	DateField       string
	SuggestionField string
	DefaultSubject  string

	// Follow keeps the loop alive at the cap and when the store runs dry,
	// polling every PollInterval for new rows.
	Follow       bool
	PollInterval time.Duration
}

// Result summarises a run.
type Result struct {
	Sent   int
	Failed int
	Stop   string
}

// Pacer is the send loop: pick the first unsent recipient, render, send and
// record, within the budget.
type Pacer struct {
	store     recipients.Store
	tmpl      *template.Template
	augmenter augment.Augmenter
	sender    mail.Sender
	budget    *Budget
	clock     Clock
	logger    *slog.Logger
	opts      Options

	// Jitter is the extra delay before each send.
	Jitter func() time.Duration
}

func New(store recipients.Store, tmpl *template.Template, augmenter augment.Augmenter, sender mail.Sender,
	budget *Budget, clock Clock, logger *slog.Logger, opts Options,
) *Pacer {
	if augmenter == nil {
		augmenter = augment.Noop{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 15 * time.Minute
	}
	return &Pacer{
		store:     store,
		tmpl:      tmpl,
		augmenter: augmenter,
		sender:    sender,
		budget:    budget,
		clock:     clock,
		logger:    logger,
		opts:      opts,
		Jitter:    Jitter,
	}
}

// Run loops until the budget or the recipients are exhausted, or, in follow
// mode, until ctx is cancelled. Cancellation is not an error. A send that has
// started is completed and recorded before Run returns.
func (p *Pacer) Run(ctx context.Context) (Result, error) {
	var res Result

	if err := p.store.EnsureField(ctx, p.opts.StatusField); err != nil {
		return res, fmt.Errorf("preparing status column: %w", err)
	}

	for {
		if ctx.Err() != nil {
			return res, nil
		}

		if p.budget.CapReached() {
			if !p.opts.Follow {
				p.logger.Info("daily limit reached", slog.Int("limit", p.budget.Limit()))
				res.Stop = StopCapReached
				return res, nil
			}
			p.logger.Info("daily limit reached, waiting for reset", slog.Int("limit", p.budget.Limit()))
			select {
			case <-ctx.Done():
				return res, nil
			case <-p.budget.Resets():
				p.logger.Info("budget reset, resuming")
			}
			continue
		}

		if wait := p.budget.Remaining(); wait > 0 {
			p.logger.Debug("waiting before next email", slog.Duration("wait", wait))
			if p.clock.Sleep(ctx, wait) != nil {
				return res, nil
			}
			continue
		}

		pending, err := p.store.List(ctx, p.opts.StatusField, recipients.NotSent)
		if err != nil {
			if ctx.Err() != nil {
				return res, nil
			}
			if p.opts.Follow && util.KindOf(err) == util.KindTransient {
				p.logger.Warn("reading recipients failed, retrying later", slog.String("error", err.Error()))
				if p.clock.Sleep(ctx, p.opts.PollInterval) != nil {
					return res, nil
				}
				continue
			}
			return res, fmt.Errorf("reading recipients: %w", err)
		}

		if len(pending) == 0 {
			if !p.opts.Follow {
				p.logger.Info("no more recipients to email")
				res.Stop = StopNoRecipients
				return res, nil
			}
			p.logger.Debug("no unsent recipients, polling later", slog.Duration("poll", p.opts.PollInterval))
			if p.clock.Sleep(ctx, p.opts.PollInterval) != nil {
				return res, nil
			}
			continue
		}

		if p.clock.Sleep(ctx, p.Jitter()) != nil {
			return res, nil
		}

		// Past this point a shutdown waits for the send and its status write.
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
		sent, err := p.process(sendCtx, pending[0])
		cancel()
		switch {
		case sent:
			res.Sent++
		case err == nil:
			res.Failed++
		}
		if err != nil {
			return res, err
		}
	}
}

// process delivers to r and records the outcome. It returns false when r was
// marked Failed, and an error when the outcome could not be recorded.
func (p *Pacer) process(ctx context.Context, r recipients.Recipient) (bool, error) {
	log := p.logger.With(slog.Int("row", r.Row), slog.String("to", r.Get(p.opts.AddressField)))

	msg, err := p.Render(ctx, r)
	if err == nil {
		err = p.sender.Send(ctx, msg)
	}

	if err != nil {
		log.Warn("email failed", slog.String("reason", err.Error()), slog.String("kind", util.KindOf(err).String()))
		if werr := p.store.Update(ctx, r.Row, p.opts.StatusField, string(recipients.Failed)); werr != nil {
			log.Error("failed to mark recipient failed", slog.String("error", werr.Error()))
			return false, fmt.Errorf("marking row %d failed: %w", r.Row, werr)
		}
		return false, nil
	}

	if berr := p.budget.RecordSend(); berr != nil {
		log.Error("failed to persist budget", slog.String("error", berr.Error()))
	}
	state := p.budget.Snapshot()
	log.Info("email sent",
		slog.String("subject", msg.Subject),
		slog.Int("sent_today", state.SentToday),
		slog.Int("limit", p.budget.Limit()))

	if err := p.store.Update(ctx, r.Row, p.opts.StatusField, string(recipients.Sent)); err != nil {
		log.Error("email sent but status not recorded", slog.String("error", err.Error()))
		return true, fmt.Errorf("marking row %d sent: %w", r.Row, err)
	}
	if p.opts.DateField != "" && r.Has(p.opts.DateField) {
		if err := p.store.Update(ctx, r.Row, p.opts.DateField, p.clock.Now().Format("1/2")); err != nil {
			log.Warn("failed to record send date", slog.String("error", err.Error()))
		}
	}
	return true, nil
}

// Render builds the message for r without sending it.
func (p *Pacer) Render(ctx context.Context, r recipients.Recipient) (mail.Message, error) {
	to := r.Get(p.opts.AddressField)
	if to == "" {
		return mail.Message{}, util.Permanent("render", ErrMissingAddress)
	}

	data := maps.Clone(r.Fields)
	if data == nil {
		data = make(map[string]string)
	}
	category := r.Get(p.opts.CategoryField)

	if f := p.opts.SuggestionField; f != "" && p.tmpl.Uses(f) && r.Get(f) == "" {
		suggestion := ""
		if category != "" {
			suggestion = p.augmenter.Suggest(ctx, category)
		}
		data[f] = suggestion
	}

	email, err := p.tmpl.Compose(data, p.opts.DefaultSubject, category)
	if err != nil {
		return mail.Message{}, util.Permanent("render", err)
	}
	if email.WholeDocument {
		p.logger.Warn("template has no <body>, sending the whole document", slog.Int("row", r.Row))
	}
	if missing := template.Unfilled(email.HTML); len(missing) > 0 {
		p.logger.Warn("template placeholders left unfilled", slog.Int("row", r.Row), slog.Any("fields", missing))
	}
	return mail.Message{To: to, Subject: email.Subject, HTML: email.HTML}, nil
}

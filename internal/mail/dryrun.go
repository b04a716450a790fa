package mail

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gosimple/slug"

	"github.com/ryan-gang/outreach-send/internal/config"
)

// DryRun logs messages instead of sending them. With an outbox directory it
// also writes each message as an .html file for inspection.
type DryRun struct {
	mu     sync.Mutex
	outbox string
	logger *slog.Logger
	count  int
}

func NewDryRun(outbox string, logger *slog.Logger) *DryRun {
	return &DryRun{outbox: outbox, logger: logger}
}

func (d *DryRun) Name() string {
	return config.MailDryRun
}

// Send never fails for delivery reasons; only an unwritable outbox is
// reported.
func (d *DryRun) Send(_ context.Context, m Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.count++

	d.logger.Info("dry run: email not sent",
		slog.String("to", m.To),
		slog.String("subject", m.Subject),
		slog.Int("bytes", len(m.HTML)))

	if d.outbox == "" {
		return nil
	}
	if err := os.MkdirAll(d.outbox, 0o755); err != nil {
		return fmt.Errorf("creating outbox: %w", err)
	}
	name := fmt.Sprintf("%03d-%s.html", d.count, slug.Make(m.To+" "+m.Subject))
	path := filepath.Join(d.outbox, name)
	page := fmt.Sprintf("<!-- To: %s -->\n<!-- Subject: %s -->\n%s\n", m.To, m.Subject, m.HTML)
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		return fmt.Errorf("writing outbox file: %w", err)
	}
	d.logger.Debug("dry run: message written", slog.String("path", path))
	return nil
}

// Sent returns how many messages were simulated.
func (d *DryRun) Sent() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

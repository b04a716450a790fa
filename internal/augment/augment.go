package augment

import (
	"context"
	"log/slog"

	"github.com/ryan-gang/outreach-send/internal/config"
)

// Augmenter produces a one sentence suggestion for a recipient category.
// Implementations never fail: any problem yields "".
type Augmenter interface {
	Suggest(ctx context.Context, category string) string
}

// New returns the Claude augmenter when an API key is configured and a no-op
// otherwise.
func New(cfg config.AugmenterConfig, logger *slog.Logger) Augmenter {
	if !cfg.Enabled() {
		return Noop{}
	}
	return NewClaude(cfg, logger)
}

// Noop always suggests nothing.
type Noop struct{}

func (Noop) Suggest(context.Context, string) string {
	return ""
}

package augment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/microcosm-cc/bluemonday"

	"github.com/ryan-gang/outreach-send/internal/config"
)

// Claude asks Anthropic's Messages API for a suggestion.
type Claude struct {
	client    *anthropic.Client
	logger    *slog.Logger
	model     string
	maxTokens int64
	timeout   time.Duration
	policy    *bluemonday.Policy
}

// NewClaude builds a Claude augmenter. SDK retries are disabled; a slow or
// failing API costs one timeout per recipient at most.
func NewClaude(cfg config.AugmenterConfig, logger *slog.Logger) *Claude {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 120
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &Claude{
		client:    &client,
		logger:    logger,
		model:     cfg.Model,
		maxTokens: int64(maxTokens),
		timeout:   timeout,
		policy:    bluemonday.StrictPolicy(),
	}
}

func prompt(category string) string {
	return fmt.Sprintf("Write one short, concrete sentence suggesting how AI could help a business in the %q sector. "+
		"Reply with the sentence only, no quotes and no preamble.", category)
}

func (c *Claude) Suggest(ctx context.Context, category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt(category))),
		},
	})
	if err != nil {
		c.logger.Warn("suggestion request failed",
			slog.String("category", category),
			slog.String("error", err.Error()))
		return ""
	}

	var text string
	for _, content := range message.Content {
		if content.Type == "text" {
			text += content.Text
		}
	}

	suggestion := c.clean(text)
	c.logger.Debug("suggestion generated",
		slog.String("category", category),
		slog.Int("output_tokens", int(message.Usage.OutputTokens)))
	return suggestion
}

// clean keeps the first non-empty line, drops surrounding quotes and strips
// all markup so the result can be inserted into HTML as text.
func (c *Claude) clean(text string) string {
	var line string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			line = l
			break
		}
	}
	line = strings.Trim(line, "\"'“”‘’ ")
	return strings.TrimSpace(c.policy.Sanitize(line))
}

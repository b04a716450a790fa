package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"

	"github.com/ryan-gang/outreach-send/internal/config"
)

// Logger is a slog.Logger that owns its log file.
type Logger struct {
	*slog.Logger
	file   *os.File
	sentry bool
}

// Options controls where log records go.
type Options struct {
	Level slog.Level
	// Console receives human readable text records. Nil disables console output.
	Console io.Writer
	// FilePath receives JSON records, appended. Empty disables file output.
	FilePath  string
	SentryDSN string
	SentryEnv string
}

// NewLogger creates the process logger from configuration: text on stderr,
// JSON in the log file, errors forwarded to Sentry when a DSN is set.
func NewLogger(cfg *config.Config) (*Logger, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config not initialized")
	}
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return New(Options{
		Level:     level,
		Console:   os.Stderr,
		FilePath:  cfg.LogPath,
		SentryDSN: cfg.Sentry.DSN,
		SentryEnv: cfg.Sentry.Environment,
	})
}

// New builds a Logger from explicit options.
func New(opts Options) (*Logger, error) {
	l := &Logger{}
	var handlers []slog.Handler

	if opts.Console != nil {
		handlers = append(handlers, slog.NewTextHandler(opts.Console, &slog.HandlerOptions{Level: opts.Level}))
	}

	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.file = file
		handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: opts.Level}))
	}

	if opts.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         opts.SentryDSN,
			Environment: opts.SentryEnv,
			EnableLogs:  true,
		}); err != nil {
			// Keep logging locally; Sentry is optional.
			if len(handlers) > 0 {
				slog.New(newMultiHandler(handlers...)).Error("failed to initialize Sentry", slog.String("error", err.Error()))
			}
		} else {
			l.sentry = true
			handlers = append(handlers, sentryslog.Option{
				EventLevel: []slog.Level{slog.LevelError},
				LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
			}.NewSentryHandler(context.Background()))
		}
	}

	if len(handlers) == 0 {
		l.Logger = NewNope()
		return l, nil
	}
	l.Logger = slog.New(newMultiHandler(handlers...))
	return l, nil
}

// Close flushes Sentry and closes the log file.
func (l *Logger) Close() error {
	if l.sentry {
		sentry.Flush(2 * time.Second)
	}
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// NewNope creates a no-op logger that discards all output.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

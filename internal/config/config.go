package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const XdgConfigHome = "XDG_CONFIG_HOME"
const ConfigFolderName = "outreach-send"
const DefaultEnvFile = ".env.local"

// Config is the complete runtime configuration, read from the environment.
type Config struct {
	DailyLimit      int    `env:"DAILY_EMAIL_LIMIT" envDefault:"10"`
	IntervalMinutes int    `env:"EMAIL_INTERVAL_MINUTES" envDefault:"2"`
	Subject         string `env:"EMAIL_SUBJECT" envDefault:"Reaching out regarding AI solutions"`
	TemplatePath    string `env:"EMAIL_TEMPLATE" envDefault:"email_template.html"`

	StatusField     string `env:"STATUS_COLUMN" envDefault:"Status"`
	AddressField    string `env:"EMAIL_COLUMN" envDefault:"email"`
	CategoryField   string `env:"CATEGORY_COLUMN" envDefault:"sector"`
	DateField       string `env:"DATE_COLUMN" envDefault:"Date"`
	SuggestionField string `env:"SUGGESTION_PLACEHOLDER" envDefault:"suggestion"`

	ResetSchedule string `env:"RESET_SCHEDULE" envDefault:"0 0 * * *"`
	PollMinutes   int    `env:"RECIPIENT_POLL_MINUTES" envDefault:"15"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPath   string `env:"LOG_PATH"`
	PidFile   string `env:"PID_FILE"`
	StatePath string `env:"STATE_FILE"`

	Store     StoreConfig
	Mail      MailConfig
	Augmenter AugmenterConfig
	Sentry    SentryConfig
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/outreach-send, falling back to
// ~/.config/outreach-send, creating it when needed.
func DefaultConfigDir() (string, error) {
	var configFolder string
	xdgConfigHome := os.Getenv(XdgConfigHome)
	if len(xdgConfigHome) == 0 {
		user, err := user.Current()
		if err != nil {
			return "", fmt.Errorf("couldn't get current user: %w", err)
		}
		configFolder = filepath.Join(user.HomeDir, ".config", ConfigFolderName)
	} else {
		configFolder = filepath.Join(xdgConfigHome, ConfigFolderName)
	}
	if err := os.MkdirAll(configFolder, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configFolder, nil
}

// SetDaemonDefaults fills log, pid and state paths that were not configured.
func SetDaemonDefaults(c *Config) error {
	if c.LogPath != "" && c.PidFile != "" && c.StatePath != "" {
		return nil
	}
	configDir, err := DefaultConfigDir()
	if err != nil {
		return err
	}
	if c.LogPath == "" {
		c.LogPath = filepath.Join(configDir, "outreach-send.log")
	}
	if c.PidFile == "" {
		c.PidFile = filepath.Join(configDir, "outreach-send.pid")
	}
	if c.StatePath == "" {
		c.StatePath = filepath.Join(configDir, "budget.json")
	}
	return nil
}

// LoadEnvFile loads variables from filename into the process environment.
// Variables already set are not overridden. A missing file is not an error.
func LoadEnvFile(filename string) error {
	if filename == "" {
		return nil
	}
	err := godotenv.Load(filename)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", filename, err)
}

// Load reads the env file (if present) and parses the environment.
// It does not validate; call Validate before starting to send.
func Load(envFile string) (*Config, error) {
	if err := LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	return parse(env.Options{})
}

// LoadFrom parses configuration from the given variables only. Used by tests
// and by the check command to inspect an env file without exporting it.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	c.Mail.Provider = strings.ToLower(strings.TrimSpace(c.Mail.Provider))
	c.Store.Provider = strings.ToLower(strings.TrimSpace(c.Store.Provider))
	return &c, nil
}

// Validate reports every problem that makes sending impossible: bad rate
// limits and missing credentials for the selected store and mail provider.
func (c *Config) Validate() error {
	var errs []error
	if c.DailyLimit <= 0 {
		errs = append(errs, fmt.Errorf("DAILY_EMAIL_LIMIT must be greater than 0, got %d", c.DailyLimit))
	}
	if c.IntervalMinutes < 0 {
		errs = append(errs, fmt.Errorf("EMAIL_INTERVAL_MINUTES must not be negative, got %d", c.IntervalMinutes))
	}
	if c.PollMinutes <= 0 {
		errs = append(errs, fmt.Errorf("RECIPIENT_POLL_MINUTES must be greater than 0, got %d", c.PollMinutes))
	}
	if c.StatusField == "" {
		errs = append(errs, errors.New("STATUS_COLUMN must not be empty"))
	}
	if c.AddressField == "" {
		errs = append(errs, errors.New("EMAIL_COLUMN must not be empty"))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if err := c.Store.validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Mail.validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// MissingVariables lists required variables that are unset for the selected
// providers.
func (c *Config) MissingVariables() []string {
	missing := c.Store.missing()
	return append(missing, c.Mail.missing()...)
}

// ParseLogLevel maps debug|info|warn|error onto slog levels.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", level)
}

// Save writes vars to filename in env file format.
func Save(vars map[string]string, filename string) error {
	return godotenv.Write(vars, filename)
}

// ReadEnvFile returns the variables defined in filename without exporting
// them.
func ReadEnvFile(filename string) (map[string]string, error) {
	return godotenv.Read(filename)
}

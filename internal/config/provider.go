package config

import (
	"errors"
	"fmt"
	"strings"
)

// Store providers.
const (
	StoreSheets = "sheets"
	StoreCSV    = "csv"
)

// Mail providers.
const (
	MailGraph    = "graph"
	MailResend   = "resend"
	MailPostmark = "postmark"
	MailSMTP     = "smtp"
	MailDryRun   = "dryrun"
)

// StoreConfig selects and configures the recipient store.
type StoreConfig struct {
	Provider        string `env:"STORE_PROVIDER" envDefault:"sheets"`
	SheetID         string `env:"GOOGLE_SHEET_ID"`
	SheetRange      string `env:"GOOGLE_SHEET_RANGE" envDefault:"Sheet1!A1:Z1000"`
	CredentialsFile string `env:"GOOGLE_SHEETS_CREDENTIALS_FILE" envDefault:"credentials.json"`
	TokenFile       string `env:"GOOGLE_SHEETS_TOKEN_FILE" envDefault:"token.json"`
	CSVPath         string `env:"RECIPIENTS_CSV"`
}

func (s StoreConfig) missing() []string {
	var missing []string
	switch s.Provider {
	case StoreSheets:
		if s.SheetID == "" {
			missing = append(missing, "GOOGLE_SHEET_ID")
		}
		if s.SheetRange == "" {
			missing = append(missing, "GOOGLE_SHEET_RANGE")
		}
		if s.CredentialsFile == "" {
			missing = append(missing, "GOOGLE_SHEETS_CREDENTIALS_FILE")
		}
	case StoreCSV:
		if s.CSVPath == "" {
			missing = append(missing, "RECIPIENTS_CSV")
		}
	}
	return missing
}

func (s StoreConfig) validate() error {
	switch s.Provider {
	case StoreSheets, StoreCSV:
	default:
		return fmt.Errorf("STORE_PROVIDER %q is not one of %s, %s", s.Provider, StoreSheets, StoreCSV)
	}
	if missing := s.missing(); len(missing) > 0 {
		return fmt.Errorf("store %s: missing %s", s.Provider, strings.Join(missing, ", "))
	}
	return nil
}

// SheetName returns the sheet part of SheetRange ("Sheet1!A1:Z1000" -> "Sheet1").
func (s StoreConfig) SheetName() string {
	name, _, _ := strings.Cut(s.SheetRange, "!")
	return name
}

// MailConfig selects and configures the mail transport.
type MailConfig struct {
	Provider string `env:"MAIL_PROVIDER" envDefault:"graph"`
	DryRun   bool   `env:"DRY_RUN"`
	Outbox   string `env:"DRY_RUN_OUTBOX"`
	FromName string `env:"MAIL_FROM_NAME"`

	Graph    GraphConfig
	Resend   ResendConfig
	Postmark PostmarkConfig
	SMTP     SMTPConfig
}

// GraphConfig holds Microsoft Graph client-credential settings.
type GraphConfig struct {
	ClientID      string `env:"MS_CLIENT_ID"`
	TenantID      string `env:"MS_TENANT_ID"`
	ClientSecret  string `env:"MS_CLIENT_SECRET"`
	UserEmail     string `env:"MS_USER_EMAIL"`
	Endpoint      string `env:"MS_GRAPH_ENDPOINT" envDefault:"https://graph.microsoft.com/v1.0"`
	AuthorityHost string `env:"MS_AUTHORITY_HOST" envDefault:"https://login.microsoftonline.com"`
}

// TokenURL is the tenant's OAuth2 v2 token endpoint.
func (g GraphConfig) TokenURL() string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimRight(g.AuthorityHost, "/"), g.TenantID)
}

// ResendConfig holds Resend API settings.
type ResendConfig struct {
	APIKey    string `env:"RESEND_API_KEY"`
	FromEmail string `env:"RESEND_FROM_EMAIL"`
}

// PostmarkConfig holds Postmark API settings.
type PostmarkConfig struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	FromEmail    string `env:"POSTMARK_FROM_EMAIL"`
	Tag          string `env:"POSTMARK_TAG" envDefault:"outreach"`
}

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	User     string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
	Timeout  int    `env:"SMTP_TIMEOUT_SECONDS" envDefault:"30"`
}

// EffectiveProvider is the provider actually used: dry runs always simulate.
func (m MailConfig) EffectiveProvider() string {
	if m.DryRun {
		return MailDryRun
	}
	return m.Provider
}

func (m MailConfig) missing() []string {
	var missing []string
	add := func(value, name string) {
		if value == "" {
			missing = append(missing, name)
		}
	}
	switch m.EffectiveProvider() {
	case MailGraph:
		add(m.Graph.ClientID, "MS_CLIENT_ID")
		add(m.Graph.TenantID, "MS_TENANT_ID")
		add(m.Graph.ClientSecret, "MS_CLIENT_SECRET")
		add(m.Graph.UserEmail, "MS_USER_EMAIL")
	case MailResend:
		add(m.Resend.APIKey, "RESEND_API_KEY")
		add(m.Resend.FromEmail, "RESEND_FROM_EMAIL")
	case MailPostmark:
		add(m.Postmark.ServerToken, "POSTMARK_SERVER_TOKEN")
		add(m.Postmark.FromEmail, "POSTMARK_FROM_EMAIL")
	case MailSMTP:
		add(m.SMTP.Host, "SMTP_HOST")
		add(m.SMTP.From, "SMTP_FROM")
	}
	return missing
}

func (m MailConfig) validate() error {
	switch m.EffectiveProvider() {
	case MailGraph, MailResend, MailPostmark, MailSMTP, MailDryRun:
	default:
		return fmt.Errorf("MAIL_PROVIDER %q is not one of %s, %s, %s, %s, %s",
			m.Provider, MailGraph, MailResend, MailPostmark, MailSMTP, MailDryRun)
	}
	if missing := m.missing(); len(missing) > 0 {
		return fmt.Errorf("mail %s: missing %s", m.EffectiveProvider(), strings.Join(missing, ", "))
	}
	if m.EffectiveProvider() == MailSMTP && m.SMTP.Port <= 0 {
		return errors.New("SMTP_PORT must be greater than 0")
	}
	return nil
}

// AugmenterConfig configures the optional suggestion generator. An empty API
// key disables it.
type AugmenterConfig struct {
	APIKey         string `env:"ANTHROPIC_API_KEY"`
	Model          string `env:"ANTHROPIC_MODEL" envDefault:"claude-3-5-haiku-latest"`
	BaseURL        string `env:"ANTHROPIC_BASE_URL"`
	MaxTokens      int    `env:"ANTHROPIC_MAX_TOKENS" envDefault:"120"`
	TimeoutSeconds int    `env:"ANTHROPIC_TIMEOUT_SECONDS" envDefault:"20"`
}

// Enabled reports whether an API key is configured.
func (a AugmenterConfig) Enabled() bool {
	return a.APIKey != ""
}

// SentryConfig enables error forwarding when DSN is set.
type SentryConfig struct {
	DSN         string `env:"SENTRY_DSN"`
	Environment string `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
}

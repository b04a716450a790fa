package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.DailyLimit)
	assert.Equal(t, 2, cfg.IntervalMinutes)
	assert.Equal(t, "Reaching out regarding AI solutions", cfg.Subject)
	assert.Equal(t, "Status", cfg.StatusField)
	assert.Equal(t, "email", cfg.AddressField)
	assert.Equal(t, "0 0 * * *", cfg.ResetSchedule)
	assert.Equal(t, StoreSheets, cfg.Store.Provider)
	assert.Equal(t, "Sheet1!A1:Z1000", cfg.Store.SheetRange)
	assert.Equal(t, "Sheet1", cfg.Store.SheetName())
	assert.Equal(t, MailGraph, cfg.Mail.Provider)
	assert.Equal(t, "https://graph.microsoft.com/v1.0", cfg.Mail.Graph.Endpoint)
	assert.False(t, cfg.Augmenter.Enabled())
}

func TestLoadFrom_Overrides(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFrom(map[string]string{
		"DAILY_EMAIL_LIMIT":      "25",
		"EMAIL_INTERVAL_MINUTES": "0",
		"MAIL_PROVIDER":          " Resend ",
		"STORE_PROVIDER":         "CSV",
		"RECIPIENTS_CSV":         "people.csv",
		"ANTHROPIC_API_KEY":      "sk-test",
		"SMTP_PORT":              "2525",
	})
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.DailyLimit)
	assert.Equal(t, 0, cfg.IntervalMinutes)
	assert.Equal(t, MailResend, cfg.Mail.Provider)
	assert.Equal(t, StoreCSV, cfg.Store.Provider)
	assert.Equal(t, "people.csv", cfg.Store.CSVPath)
	assert.Equal(t, 2525, cfg.Mail.SMTP.Port)
	assert.True(t, cfg.Augmenter.Enabled())
}

func TestLoadFrom_BadInteger(t *testing.T) {
	t.Parallel()

	_, err := LoadFrom(map[string]string{"DAILY_EMAIL_LIMIT": "ten"})
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := map[string]string{
		"GOOGLE_SHEET_ID":  "sheet-id",
		"MS_CLIENT_ID":     "client",
		"MS_TENANT_ID":     "tenant",
		"MS_CLIENT_SECRET": "secret",
		"MS_USER_EMAIL":    "me@example.com",
	}

	tests := []struct {
		name     string
		override map[string]string
		wantErr  string
	}{
		{name: "valid graph + sheets"},
		{name: "zero daily limit", override: map[string]string{"DAILY_EMAIL_LIMIT": "0"}, wantErr: "DAILY_EMAIL_LIMIT"},
		{name: "negative interval", override: map[string]string{"EMAIL_INTERVAL_MINUTES": "-1"}, wantErr: "EMAIL_INTERVAL_MINUTES"},
		{name: "missing sheet id", override: map[string]string{"GOOGLE_SHEET_ID": ""}, wantErr: "GOOGLE_SHEET_ID"},
		{name: "missing graph secret", override: map[string]string{"MS_CLIENT_SECRET": ""}, wantErr: "MS_CLIENT_SECRET"},
		{name: "dry run needs no mail credentials", override: map[string]string{"MS_CLIENT_SECRET": "", "DRY_RUN": "true"}},
		{name: "unknown mail provider", override: map[string]string{"MAIL_PROVIDER": "pigeon"}, wantErr: "MAIL_PROVIDER"},
		{name: "unknown store", override: map[string]string{"STORE_PROVIDER": "excel"}, wantErr: "STORE_PROVIDER"},
		{name: "csv without path", override: map[string]string{"STORE_PROVIDER": "csv"}, wantErr: "RECIPIENTS_CSV"},
		{name: "bad log level", override: map[string]string{"LOG_LEVEL": "loud"}, wantErr: "LOG_LEVEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			vars := make(map[string]string, len(valid))
			for k, v := range valid {
				vars[k] = v
			}
			for k, v := range tt.override {
				vars[k] = v
			}

			cfg, err := LoadFrom(vars)
			require.NoError(t, err)

			err = cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMissingVariables(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFrom(map[string]string{"MAIL_PROVIDER": "smtp"})
	require.NoError(t, err)

	assert.Equal(t, []string{"GOOGLE_SHEET_ID", "SMTP_HOST", "SMTP_FROM"}, cfg.MissingVariables())
}

func TestGraphTokenURL(t *testing.T) {
	t.Parallel()

	g := GraphConfig{TenantID: "abc", AuthorityHost: "https://login.example.com/"}
	assert.Equal(t, "https://login.example.com/abc/oauth2/v2.0/token", g.TokenURL())
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	level, err := ParseLogLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLogLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	_, err = ParseLogLevel("verbose")
	require.Error(t, err)
}

func TestSaveAndReadEnvFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".env.local")
	require.NoError(t, Save(map[string]string{
		"DAILY_EMAIL_LIMIT": "5",
		"EMAIL_SUBJECT":     "Hello there",
	}, path))

	vars, err := ReadEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, "5", vars["DAILY_EMAIL_LIMIT"])
	assert.Equal(t, "Hello there", vars["EMAIL_SUBJECT"])

	cfg, err := LoadFrom(vars)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.DailyLimit)
}

func TestLoadEnvFile_MissingIsNotAnError(t *testing.T) {
	t.Parallel()

	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")))
	require.NoError(t, LoadEnvFile(""))
}

func TestSetDaemonDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(XdgConfigHome, dir)

	cfg := &Config{StatePath: "/tmp/custom.json"}
	require.NoError(t, SetDaemonDefaults(cfg))

	assert.Equal(t, filepath.Join(dir, ConfigFolderName, "outreach-send.log"), cfg.LogPath)
	assert.Equal(t, filepath.Join(dir, ConfigFolderName, "outreach-send.pid"), cfg.PidFile)
	assert.Equal(t, "/tmp/custom.json", cfg.StatePath)

	_, err := os.Stat(filepath.Join(dir, ConfigFolderName))
	require.NoError(t, err)
}

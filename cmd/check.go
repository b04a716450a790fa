package cmd

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ryan-gang/outreach-send/internal/cmdutil"
	"github.com/ryan-gang/outreach-send/internal/config"
	"github.com/ryan-gang/outreach-send/internal/pacer"
	"github.com/ryan-gang/outreach-send/internal/template"
	"github.com/ryan-gang/outreach-send/internal/util"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check configuration, template and credentials",
	Long: `Reports missing settings for the selected store and mail provider, the
effective optional settings, the template placeholders and whether the
Google credentials file is present. Exits non-zero when sending would fail.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := cmdutil.LoadConfigOrExit(cmd)
		if cfg == nil {
			os.Exit(1)
		}

		ok := checkRequired(cfg)
		checkOptional(cfg)
		ok = checkTemplate(cfg) && ok
		ok = checkCredentials(cfg) && ok

		if _, err := pacer.ParseSchedule(cfg.ResetSchedule); err != nil {
			util.Red.Printf("✗ RESET_SCHEDULE: %v\n", err)
			ok = false
		}

		if err := cfg.Validate(); err != nil {
			util.RedBold.Println("\nConfiguration problems:")
			for _, line := range strings.Split(err.Error(), "\n") {
				util.Red.Printf("  - %s\n", line)
			}
			ok = false
		}

		if !ok {
			os.Exit(1)
		}
		util.GreenBold.Println("\nAll checks passed. Run 'outreach-send preview' to see the next emails.")
	},
}

func checkRequired(cfg *config.Config) bool {
	util.CyanBold.Printf("Required settings (store: %s, mail: %s)\n", cfg.Store.Provider, cfg.Mail.EffectiveProvider())

	missing := cfg.MissingVariables()
	if len(missing) == 0 {
		util.Green.Println("✓ All required variables are set")
		return true
	}
	for _, name := range missing {
		util.Red.Printf("✗ %s is not set\n", name)
	}
	util.Yellow.Println("\nAdd them to your env file, for example:")
	for _, name := range missing {
		util.Yellow.Printf("  %s=...\n", name)
	}
	return false
}

func checkOptional(cfg *config.Config) {
	util.CyanBold.Println("\nOptional settings")
	settings := []struct {
		name  string
		value any
	}{
		{"DAILY_EMAIL_LIMIT", cfg.DailyLimit},
		{"EMAIL_INTERVAL_MINUTES", cfg.IntervalMinutes},
		{"EMAIL_SUBJECT", cfg.Subject},
		{"EMAIL_TEMPLATE", cfg.TemplatePath},
		{"STATUS_COLUMN", cfg.StatusField},
		{"EMAIL_COLUMN", cfg.AddressField},
		{"CATEGORY_COLUMN", cfg.CategoryField},
		{"DATE_COLUMN", cfg.DateField},
		{"RESET_SCHEDULE", cfg.ResetSchedule},
		{"RECIPIENT_POLL_MINUTES", cfg.PollMinutes},
		{"LOG_PATH", cfg.LogPath},
		{"STATE_FILE", cfg.StatePath},
	}
	for _, s := range settings {
		util.Cyan.Printf("  %-24s %v\n", s.name, s.value)
	}
	if cfg.Augmenter.Enabled() {
		util.Cyan.Printf("  %-24s %s\n", "ANTHROPIC_MODEL", cfg.Augmenter.Model)
	} else {
		util.Cyan.Printf("  %-24s %s\n", "ANTHROPIC_API_KEY", "(not set, {"+cfg.SuggestionField+"} stays empty)")
	}
}

func checkTemplate(cfg *config.Config) bool {
	util.CyanBold.Println("\nTemplate")
	tmpl, err := template.Load(cfg.TemplatePath)
	if err != nil {
		util.LogError(util.TemplateError, "loading "+cfg.TemplatePath, err)
		return false
	}
	util.Green.Printf("✓ %s\n", cfg.TemplatePath)

	fields := tmpl.Fields()
	if len(fields) == 0 {
		util.Yellow.Println("  No placeholders found")
		return true
	}
	util.Cyan.Printf("  Placeholders: {%s}\n", strings.Join(fields, "}, {"))
	util.Cyan.Println("  Each one is filled from the column with the same header")
	return true
}

func checkCredentials(cfg *config.Config) bool {
	if cfg.Store.Provider != config.StoreSheets {
		return true
	}
	util.CyanBold.Println("\nGoogle Sheets credentials")
	util.Cyan.Printf("  Sheet %q, range %s\n", cfg.Store.SheetName(), cfg.Store.SheetRange)

	ok := true
	if _, err := os.Stat(cfg.Store.CredentialsFile); err != nil {
		util.Red.Printf("✗ %s not found\n", cfg.Store.CredentialsFile)
		util.Yellow.Println("  Download an OAuth client or service account key from the Google Cloud console")
		ok = false
	} else {
		util.Green.Printf("✓ %s\n", cfg.Store.CredentialsFile)
	}

	if _, err := os.Stat(cfg.Store.TokenFile); errors.Is(err, fs.ErrNotExist) {
		util.Yellow.Printf("  %s not found; run 'outreach-send auth' unless using a service account\n", cfg.Store.TokenFile)
	}
	return ok
}

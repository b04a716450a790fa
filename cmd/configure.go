package cmd

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ryan-gang/outreach-send/internal/config"
	"github.com/ryan-gang/outreach-send/internal/util"
)

func init() {
	rootCmd.AddCommand(configureCmd)
}

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Configure outreach-send settings",
	Long: `Interactively write the env file: recipient store, mail provider
credentials and pacing settings. Values already in the file are offered as
defaults.`,
	Run: func(cmd *cobra.Command, args []string) {
		envFile, _ := cmd.Flags().GetString("env-file")

		vars, err := config.ReadEnvFile(envFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			util.CyanBold.Printf("Creating %s...\n", envFile)
			vars = map[string]string{}
		case err != nil:
			util.LogError(util.ConfigError, "reading "+envFile, err)
			os.Exit(1)
		default:
			util.CyanBold.Printf("Updating %s...\n", envFile)
		}

		ask := func(name, question, fallback string) {
			if current := vars[name]; current != "" {
				fallback = current
			}
			if answer := util.Prompt(question, fallback); answer != "" {
				vars[name] = answer
			}
		}

		util.Cyan.Println("\nRecipients")
		ask("STORE_PROVIDER", "Recipient store (sheets/csv)", config.StoreSheets)
		if vars["STORE_PROVIDER"] == config.StoreCSV {
			ask("RECIPIENTS_CSV", "Path to the recipients CSV file", "recipients.csv")
		} else {
			ask("GOOGLE_SHEET_ID", "Google Sheet ID", "")
			ask("GOOGLE_SHEET_RANGE", "Sheet range", "Sheet1!A1:Z1000")
			ask("GOOGLE_SHEETS_CREDENTIALS_FILE", "Google credentials file", "credentials.json")
		}

		util.Cyan.Println("\nMail")
		ask("MAIL_PROVIDER", "Mail provider (graph/resend/postmark/smtp/dryrun)", config.MailGraph)
		switch vars["MAIL_PROVIDER"] {
		case config.MailGraph:
			ask("MS_CLIENT_ID", "Azure application (client) ID", "")
			ask("MS_TENANT_ID", "Azure tenant ID", "")
			ask("MS_CLIENT_SECRET", "Azure client secret", "")
			ask("MS_USER_EMAIL", "Mailbox to send from", "")
		case config.MailResend:
			ask("RESEND_API_KEY", "Resend API key", "")
			ask("RESEND_FROM_EMAIL", "From address", "")
		case config.MailPostmark:
			ask("POSTMARK_SERVER_TOKEN", "Postmark server token", "")
			ask("POSTMARK_FROM_EMAIL", "From address", "")
		case config.MailSMTP:
			ask("SMTP_HOST", "SMTP host", "")
			ask("SMTP_PORT", "SMTP port", "587")
			ask("SMTP_USER", "SMTP user", "")
			ask("SMTP_PASSWORD", "SMTP password", "")
			ask("SMTP_FROM", "From address", vars["SMTP_USER"])
		}

		util.Cyan.Println("\nPacing")
		askPositive := func(name, question, fallback string) {
			ask(name, question, fallback)
			if n, err := strconv.Atoi(vars[name]); err != nil || n < 0 {
				util.Red.Printf("%s must be a whole number, keeping %s\n", name, fallback)
				vars[name] = fallback
			}
		}
		askPositive("DAILY_EMAIL_LIMIT", "Emails per day", "10")
		askPositive("EMAIL_INTERVAL_MINUTES", "Minutes between emails", "2")
		ask("EMAIL_SUBJECT", "Default subject", "Reaching out regarding AI solutions")
		ask("EMAIL_TEMPLATE", "HTML template file", "email_template.html")

		if util.Confirm("\nFill {suggestion} with Claude?") {
			ask("ANTHROPIC_API_KEY", "Anthropic API key", "")
		}

		if err := config.Save(vars, envFile); err != nil {
			util.LogError(util.ConfigError, "saving "+envFile, err)
			os.Exit(1)
		}
		util.Green.Printf("Configuration saved to %s\n", envFile)

		util.CyanBold.Println("\nNext steps:")
		if vars["STORE_PROVIDER"] != config.StoreCSV {
			util.Cyan.Println("- Run 'outreach-send auth' to authorize the Google Sheet")
		}
		util.Cyan.Println("- Run 'outreach-send check' to verify the setup")
		util.Cyan.Println("- Run 'outreach-send preview' to see the next emails")
		util.Cyan.Println("- Run 'outreach-send daemon start' to start sending")
	},
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ryan-gang/outreach-send/internal/config"
)

func init() {
	rootCmd.PersistentFlags().StringP("env-file", "e", config.DefaultEnvFile, "Path to the env file with settings and credentials")
}

var rootCmd = &cobra.Command{
	Use:   "outreach-send",
	Short: "Paced outreach emails from a spreadsheet of recipients",
	Long: `outreach-send reads recipients from a Google Sheet or CSV file, fills an
HTML template for each one and sends it through Microsoft Graph, Resend,
Postmark or SMTP, writing the delivery status back to the sheet.

Sending is paced:
- At most DAILY_EMAIL_LIMIT emails per day, reset on RESET_SCHEDULE
- At least EMAIL_INTERVAL_MINUTES between emails, plus 1-30s of jitter
- Rows already marked Sent or Failed are never emailed again

Settings are read from the environment and from the env file (.env.local).`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

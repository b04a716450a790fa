package cmd

import (
	"os"

	"github.com/lithammer/dedent"
	"github.com/spf13/cobra"

	"github.com/ryan-gang/outreach-send/internal/cmdutil"
	"github.com/ryan-gang/outreach-send/internal/daemon"
	"github.com/ryan-gang/outreach-send/internal/util"
)

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().Bool("dry-run", false, "Simulate sending; recipients are still marked Sent")
}

var (
	helpLong = `Runs one pass over the recipients: emails every row whose status is
blank or "Not Sent", one at a time, until the daily limit is reached or no
such rows remain. Each row is marked Sent or Failed as it is processed.`

	helpExample = dedent.Dedent(`
		# Send with settings from .env.local
		outreach-send send

		# Use another env file
		outreach-send send --env-file campaign.env

		# Log emails instead of sending them
		outreach-send send --dry-run`,
	)
)

var sendCmd = &cobra.Command{
	Use:     "send",
	Short:   "Send one paced batch of emails",
	Long:    helpLong,
	Example: helpExample,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := cmdutil.LoadConfigOrExit(cmd)
		if cfg == nil || !cmdutil.ValidateOrExit(cfg) {
			os.Exit(1)
		}

		d, err := daemon.NewDaemon(cfg, daemon.Options{})
		if err != nil {
			util.LogError(util.DaemonError, "preparing run", err)
			os.Exit(1)
		}
		if _, err := d.Start(); err != nil {
			util.LogError(util.MailError, "sending emails", err)
			os.Exit(1)
		}
	},
}

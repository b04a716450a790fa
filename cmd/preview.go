package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lithammer/dedent"
	"github.com/spf13/cobra"

	"github.com/ryan-gang/outreach-send/internal/cmdutil"
	"github.com/ryan-gang/outreach-send/internal/daemon"
	"github.com/ryan-gang/outreach-send/internal/logger"
	"github.com/ryan-gang/outreach-send/internal/util"
)

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().IntP("limit", "n", 3, "Number of recipients to render")
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render the next emails without sending them",
	Long: `Renders the email for the next unsent recipients and prints subject and
body. Nothing is sent, no status is written and the daily budget is untouched.`,
	Example: dedent.Dedent(`
		# Show the next 3 emails
		outreach-send preview

		# Show the next 10
		outreach-send preview --limit 10`,
	),
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg := cmdutil.LoadConfigOrExit(cmd)
		if cfg == nil {
			os.Exit(1)
		}
		cfg.Mail.DryRun = true
		if !cmdutil.ValidateOrExit(cfg) {
			os.Exit(1)
		}

		l, err := logger.New(logger.Options{Level: slog.LevelWarn, Console: os.Stderr})
		if err != nil {
			util.LogError(util.ConfigError, "creating logger", err)
			os.Exit(1)
		}
		d, err := daemon.NewDaemon(cfg, daemon.Options{Logger: l})
		if err != nil {
			util.LogError(util.DaemonError, "preparing preview", err)
			os.Exit(1)
		}
		msgs, err := d.Preview(limit)
		if err != nil {
			util.LogError(util.StoreError, "reading recipients", err)
			os.Exit(1)
		}
		if len(msgs) == 0 {
			util.Green.Println("No unsent recipients")
			return
		}

		for i, msg := range msgs {
			util.CyanBold.Printf("[%d] To: %s\n", i+1, msg.To)
			util.Cyan.Printf("Subject: %s\n", msg.Subject)
			fmt.Println(msg.HTML)
			fmt.Println()
		}
	},
}

package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/ryan-gang/outreach-send/internal/cmdutil"
	"github.com/ryan-gang/outreach-send/internal/daemon"
	"github.com/ryan-gang/outreach-send/internal/util"
)

func init() {
	rootCmd.AddCommand(daemonCmd)

	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonStatusCmd)

	daemonStartCmd.Flags().Bool("dry-run", false, "Simulate sending; recipients are still marked Sent")
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Daemon management commands",
	Long: `Manage the outreach-send daemon. The daemon keeps sending within the
daily limit, waits for the daily reset when the limit is reached and polls
the sheet for new recipients when all rows are processed.`,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the outreach-send daemon",
	Long:  `Start the daemon in the foreground. It runs until stopped with 'outreach-send daemon stop', SIGINT or SIGTERM.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := cmdutil.LoadConfigOrExit(cmd)
		if cfg == nil || !cmdutil.ValidateOrExit(cfg) {
			os.Exit(1)
		}

		d, err := daemon.NewDaemon(cfg, daemon.Options{Follow: true})
		if err != nil {
			util.LogError(util.DaemonError, "creating daemon", err)
			os.Exit(1)
		}
		if _, err := d.Start(); err != nil {
			util.LogError(util.DaemonError, "running daemon", err)
			os.Exit(1)
		}
	},
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the outreach-send daemon",
	Long:  `Ask the running daemon to finish its current email and exit.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := cmdutil.LoadConfigOrExit(cmd)
		if cfg == nil {
			os.Exit(1)
		}

		if err := daemon.StopRunning(cfg); err != nil {
			if errors.Is(err, daemon.ErrNotRunning) {
				util.Red.Println("Daemon is not running")
				return
			}
			util.LogError(util.DaemonError, "stopping daemon", err)
			os.Exit(1)
		}
	},
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check daemon status",
	Long:  `Check if the daemon is running and show today's send budget.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := cmdutil.LoadConfigOrExit(cmd)
		if cfg == nil {
			os.Exit(1)
		}
		if err := daemon.Status(cfg); err != nil {
			os.Exit(1)
		}
	},
}

package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/ryan-gang/outreach-send/internal/cmdutil"
	"github.com/ryan-gang/outreach-send/internal/recipients"
	"github.com/ryan-gang/outreach-send/internal/util"
)

func init() {
	rootCmd.AddCommand(authCmd)
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize access to the Google Sheet",
	Long: `Runs the OAuth consent flow for an installed-app credentials file and
saves the token to GOOGLE_SHEETS_TOKEN_FILE. Not needed for service accounts.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := cmdutil.LoadConfigOrExit(cmd)
		if cfg == nil {
			os.Exit(1)
		}

		err := recipients.Authorize(context.Background(), cfg.Store.CredentialsFile, cfg.Store.TokenFile,
			func(url string) (string, error) {
				util.CyanBold.Println("Open this link in your browser and allow access:")
				util.Cyan.Println(url)
				return util.Prompt("Paste the authorization code", ""), nil
			})
		if err != nil {
			util.LogError(util.StoreError, "authorizing Google Sheets", err)
			os.Exit(1)
		}
		util.Green.Printf("Token saved to %s\n", cfg.Store.TokenFile)
	},
}

package cmdutil

import (
	"github.com/spf13/cobra"

	"github.com/ryan-gang/outreach-send/internal/config"
	"github.com/ryan-gang/outreach-send/internal/util"
)

// LoadConfigFromFlags loads configuration from the env file named by the
// --env-file flag and the process environment.
func LoadConfigFromFlags(cmd *cobra.Command) (*config.Config, error) {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if dryRun, err := cmd.Flags().GetBool("dry-run"); err == nil && dryRun {
		cfg.Mail.DryRun = true
	}
	if err := config.SetDaemonDefaults(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigOrExit loads configuration and prints the error if it fails. The
// caller exits on a nil result.
func LoadConfigOrExit(cmd *cobra.Command) *config.Config {
	cfg, err := LoadConfigFromFlags(cmd)
	if err != nil {
		util.LogError(util.ConfigError, "loading configuration", err)
		return nil
	}
	return cfg
}

// ValidateOrExit prints every configuration problem and reports whether the
// configuration is usable.
func ValidateOrExit(cfg *config.Config) bool {
	if err := cfg.Validate(); err != nil {
		util.LogError(util.ConfigError, "validating configuration", err)
		util.Cyan.Println("Run 'outreach-send check' for details or 'outreach-send configure' to fix")
		return false
	}
	return true
}

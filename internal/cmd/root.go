// Package cmd provides the reelfolio command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/acgh213/reelfolio/internal/config"
	"github.com/acgh213/reelfolio/internal/logging"
)

var (
	logLevel string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "reelfolio",
	Short: "Portfolio site and admin panel for a video producer",
	Long: `reelfolio serves a video production portfolio from JSON content files
and a password protected admin panel for editing them.

Configuration comes from the environment, optionally loaded from a .env file
in the working directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}

		logging.Initialize(logging.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			File:   cfg.Log.File,
		})
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
}

// Execute runs the command named on the command line.
func Execute() error {
	return rootCmd.Execute()
}

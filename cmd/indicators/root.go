package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"indicator-dashboard/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "indicators",
	Short: "Technical-indicator service for the crypto dashboard",
	Long: `Indicators ingests OHLCV series for crypto assets and computes moving
averages, oscillators, bands, volume flow and pivot levels over them.

It serves the results over REST, streams live snapshots over WebSocket, and
can compute a single bundle from the command line.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file (env vars override it)")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

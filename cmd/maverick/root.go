package main

import (
	"github.com/johnlavender474/maverick/config"
	"github.com/johnlavender474/maverick/prefabs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Global flags available to all subcommands.
var (
	configFile string
	logLevel   string
)

// NewRootCmd creates the root command for the maverick CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maverick",
		Short: "maverick - timed-loop enemy sandbox",
		Long: `maverick loads enemy prefabs, compiles their timed behavior loops and
runs them headless or in a debug window.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (TOML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level")

	cmd.AddCommand(NewSimulateCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewPlayCmd())

	return cmd
}

// setup loads the config, points prefab overrides at the configured
// directory and builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	prefabs.SetDiskRoot(cfg.Prefabs.Dir)

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

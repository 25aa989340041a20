/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jjudge-oj/userdir/config"
	"github.com/jjudge-oj/userdir/internal/logging"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "userdir",
	Short: "User directory admin panel",
	Long: `Serves the user directory admin panel and its JSON API, and runs
maintenance tasks against the directory database. Usage:

	userdir server
	userdir migrate up
	userdir seed --count 100
	userdir export
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadRuntime reads configuration and builds the logger shared by every
// subcommand.
func loadRuntime() (config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("configure logging: %w", err)
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

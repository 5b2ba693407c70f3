// Package main provides the review-importer command-line tool for migrating projects, changes
// and groups from another review server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sgaunet/review-importer/pkg/app"
	"github.com/sgaunet/review-importer/pkg/app/importer"
	"github.com/sgaunet/review-importer/pkg/config"
	"github.com/spf13/cobra"
)

var version = "development"

// Exit codes.
const (
	exitFailure      = 1
	exitValidation   = 2
	exitConflict     = 3
	exitPrecondition = 4
)

var (
	cfgFile    string
	logLevel   string
	jsonOutput bool

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "review-importer",
	Short:         "Import projects, changes and groups from another review server",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error
		cfg, err = loadConfiguration(cfgFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		logger = initTrace(cfg.LogLevel, cfg.NoLogTime, jsonOutput)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to configuration file (YAML). Environment variables are used when omitted")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(importCmd, resumeCmd, copyCmd, completeCmd, listCmd, historyCmd, showArchiveCmd, importGroupCmd, configCmd)
}

// loadConfiguration reads the configuration from cfgFile, or from the environment when empty.
func loadConfiguration(cfgFile string) (*config.Config, error) {
	var c *config.Config
	var err error
	if cfgFile != "" {
		c, err = config.NewConfigFromFile(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading configuration from file: %w", err)
		}
	} else {
		c, err = config.NewConfigFromEnv()
		if err != nil {
			return nil, fmt.Errorf("loading configuration from environment: %w", err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// openApp builds the app for the loaded configuration.
func openApp(ctx context.Context) (*app.App, error) {
	a, err := app.NewApp(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing importer: %w", err)
	}
	a.SetLogger(logger)
	return a, nil
}

// exitCode maps an error to the process exit code.
func exitCode(err error) int {
	switch {
	case errors.Is(err, importer.ErrValidation):
		return exitValidation
	case errors.Is(err, importer.ErrConflict):
		return exitConflict
	case errors.Is(err, importer.ErrPreconditionFailed):
		return exitPrecondition
	default:
		return exitFailure
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", redactSecrets(err.Error()))
		os.Exit(exitCode(err))
	}
}

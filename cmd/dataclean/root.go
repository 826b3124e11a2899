package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/dataclean/internal/config"
	"github.com/JonMunkholm/dataclean/internal/logging"
)

// app carries state shared by every subcommand.
type app struct {
	envFile  string
	logLevel string
	cfg      *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "dataclean",
		Short:         "Validate, clean and republish applicant datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment (overrides existing variables)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override: debug, info, warn, error")

	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newValidateCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	return rootCmd
}

// load reads .env and the environment, then configures logging.
func (a *app) load() error {
	// Overload overwrites existing env vars
	if err := godotenv.Overload(a.envFile); err != nil {
		slog.Debug("no .env file loaded, using environment variables", "file", a.envFile)
	} else {
		slog.Debug("loaded .env file (overwriting existing env vars)", "file", a.envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	a.cfg = cfg
	return nil
}

// withSignalWatcher runs fn with a context cancelled on SIGINT or SIGTERM.
func withSignalWatcher(fn func(ctx context.Context, cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return fn(ctx, cmd, args)
	}
}

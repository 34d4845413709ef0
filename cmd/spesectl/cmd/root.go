// Package cmd provides the spesectl commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"spesevoce/internal/backend"
	"spesevoce/internal/cli"
	"spesevoce/internal/config"
	"spesevoce/internal/log"
)

var (
	debug bool

	logger *log.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "spesectl",
	Short: "Record and inspect voice expenses from the terminal",
	Long: `spesectl runs the spesevoce pipeline without the HTTP server.

It reads the same environment (and .env file) as the server, so records
added here land in the same store and spreadsheet.

Example:
  spesectl add "такси 12 евро"
  spesectl totals --category Еда --date 2026-10-16
  spesectl upload`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cli.LoadEnvFile()
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		logger = log.New(log.Config{
			Level:     level,
			Component: log.ComponentApp,
			Handler:   slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
		})
		slog.SetDefault(logger.Logger)
		cfg = cli.LoadAndValidateConfig(logger)
	},
}

// Execute runs the root command; an interrupt cancels the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(totalsCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(publishCmd)
}

// withBackend wires the backend for one command and releases it afterwards.
func withBackend(ctx context.Context, fn func(*backend.Backend) error) error {
	b := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := b.Cleanup(); err != nil {
			logger.Warn("Backend cleanup error", log.FieldError, err)
		}
	}()
	return fn(b)
}

func exitOnError(err error, msg string) {
	if err != nil {
		logger.Error(msg, log.FieldError, err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}

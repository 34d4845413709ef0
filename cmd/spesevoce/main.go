package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"spesevoce/internal/cli"
	apphttp "spesevoce/internal/http"
	"spesevoce/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	b := cli.InitBackend(context.Background(), logger, cfg)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Pipeline: b.Pipeline,
		Records:  b.Records,
		Sync:     b.Sync,
		Taxonomy: b.Taxonomy,
		Logger:   logger,
	})
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := b.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting spesevoce server",
		"port", cfg.Port,
		"storage", cfg.StorageBackend,
		"sheets_enabled", cfg.SheetsEnabled,
		"layout", cfg.SheetsLayout)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

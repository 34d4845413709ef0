package main

import (
	"context"
	"errors"
	"os"
	"time"

	"spesevoce/internal/amqp"
	"spesevoce/internal/cli"
	"spesevoce/internal/log"
	"spesevoce/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting spesevoce-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the transcript worker")
		os.Exit(1)
	}

	b := cli.InitBackend(context.Background(), logger, cfg)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		_ = b.Cleanup()
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := client.Close(); err != nil {
			logger.Error("AMQP close error", log.FieldError, err)
		}
	})

	tw := worker.NewTranscriptWorker(b.Pipeline, logger)
	err = client.ConsumeTranscripts(ctx, tw.HandleMessage)
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, amqp.ErrClosed):
	default:
		logger.Error("Transcript consumption failed", log.FieldError, err)
		_ = client.Close()
		_ = b.Cleanup()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	if err := b.Cleanup(); err != nil {
		logger.Error("Backend cleanup error", log.FieldError, err)
	}
	logger.Info("Worker stopped gracefully")
}

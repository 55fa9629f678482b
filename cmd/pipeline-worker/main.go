package main

import (
	"context"
	"errors"
	"os"

	"pipeline/internal/amqp"
	"pipeline/internal/cli"
	applog "pipeline/internal/log"
	"pipeline/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	logger.Info("Starting pipeline-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the worker")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := cli.SignalContext()
	defer stop()

	logger.Info("Scheduling pipeline reloads", "interval", cfg.RefreshInterval, "queue", cfg.AMQPQueue)
	if err := worker.NewScheduler(amqpClient, cfg.RefreshInterval).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Scheduler stopped", applog.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

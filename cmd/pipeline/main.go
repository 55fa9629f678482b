package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"pipeline/internal/amqp"
	"pipeline/internal/cache"
	"pipeline/internal/cli"
	apphttp "pipeline/internal/http"
	applog "pipeline/internal/log"
	"pipeline/internal/services"
	"pipeline/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext()
	defer stop()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	source, err := cli.OpenSource(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to open pipeline source", applog.FieldError, err.Error(), applog.FieldSource, cfg.DataSource)
		os.Exit(1)
	}

	var (
		amqpClient *amqp.Client
		batchPub   services.BatchPublisher
		dealPub    services.DealPublisher
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
			os.Exit(1)
		}
		defer amqpClient.Close()
		batchPub, dealPub = amqpClient, amqpClient
		logger.Info("AMQP enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	batches := cache.NewBatchCache(cfg.CacheSize, cfg.CacheTTL)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(batches.Cleaners()...)
	cacheManager.StartCleanup(cfg.CacheTTL)
	defer cacheManager.Stop()

	pipeline := services.NewPipelineService(batches, services.PipelineOptions{
		Source:    source,
		TitleRows: cfg.SourceTitleRows(),
		Imports:   repo,
		Events:    batchPub,
		Logger:    logger,
	})
	deals := services.NewDealService(repo, dealPub)

	// The first load failing is not fatal: the batch can be reloaded later.
	if pipeline.HasSource() {
		if _, err := pipeline.Reload(ctx); err != nil {
			logger.Warn("Initial pipeline load failed", applog.FieldError, err.Error())
		}
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:           ":" + cfg.Port,
		Pipeline:       pipeline,
		Deals:          deals,
		Ready:          repo,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Logger:         logger,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting pipeline server", "port", cfg.Port, applog.FieldSource, cfg.DataSource)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", applog.FieldOperation, applog.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Reload requests are only useful when there is a source to re-read.
	if amqpClient != nil && pipeline.HasSource() {
		reloads := worker.NewReloadWorker(pipeline)
		g.Go(func() error {
			err := amqpClient.ConsumeReloads(gctx, reloads.HandleReloadRequest)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

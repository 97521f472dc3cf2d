package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gastos/internal/amqp"
	"gastos/internal/config"
	"gastos/internal/export"
	"gastos/internal/log"
	"gastos/internal/store/sqlite"
	"gastos/internal/worker"
)

func main() {
	// .env is for local development; ignore errors in production
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting gastos-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	// The worker reads pending installments from the shared database, so
	// it always uses the sqlite backend.
	repo, err := sqlite.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize sqlite store", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	if !cfg.ExportEnabled() {
		logger.Error("Sheets export not configured, nothing to do (set GOOGLE_SPREADSHEET_ID)")
		os.Exit(1)
	}

	sheetsClient, err := export.New(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exportWorker := worker.NewExportWorker(repo, sheetsClient, cfg.ExportBatchSize, logger)

	// On startup, drain anything a lost message left behind
	logger.Info("Performing startup export check")
	if err := exportWorker.ProcessPending(ctx); err != nil {
		logger.Error("Startup export check failed", log.FieldError, err)
	}

	go func() {
		handler := func(msg *amqp.LedgerMessage) error {
			return exportWorker.HandleMessage(ctx, msg)
		}
		if err := amqpClient.ConsumeLedgerMessages(ctx, handler); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
			cancel()
		}
	}()

	// Periodic catch-up pass for missed messages
	go func() {
		ticker := time.NewTicker(cfg.ExportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := exportWorker.ProcessPending(ctx); err != nil {
					logger.Error("Periodic export failed", log.FieldError, err)
				}
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker")
	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}

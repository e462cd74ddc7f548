package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"walletbook/internal/amqp"
	"walletbook/internal/config"
	applog "walletbook/internal/log"
	gsheet "walletbook/internal/sheets/google"
	"walletbook/internal/storage"
	"walletbook/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig(applog.ComponentWorker))
	applog.SetDefault(logger)

	logger.Info("Starting walletbook-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the export worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sheetsClient, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	exportWorker := worker.NewExportWorker(repo, sheetsClient)

	// Sweep anything that piled up while the worker was down.
	if n, err := exportWorker.ProcessPending(ctx, cfg.ExportBatchSize); err != nil {
		logger.Error("Startup export sweep failed", "exported", n, "error", err)
	} else if n > 0 {
		logger.Info("Startup export sweep finished", "exported", n)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			return amqpClient.ConsumeTransactionEvents(gctx, func(ev *amqp.TransactionEvent) error {
				return exportWorker.HandleEvent(gctx, ev)
			})
		})
	} else {
		logger.Info("AMQP disabled - relying on the periodic sweep only")
	}

	// Periodic sweep covers events lost while the broker was down.
	g.Go(func() error {
		return exportWorker.Run(gctx, cfg.ExportInterval, cfg.ExportBatchSize)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

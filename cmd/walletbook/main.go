package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"walletbook/internal/amqp"
	"walletbook/internal/backend"
	"walletbook/internal/config"
	apphttp "walletbook/internal/http"
	"walletbook/internal/images"
	"walletbook/internal/images/cloudinary"
	applog "walletbook/internal/log"
	"walletbook/internal/services"
)

func main() {
	// .env for local development; absent in production.
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig(applog.ComponentApp))
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	result, err := backend.Open(cfg, logger.Logger)
	if err != nil {
		logger.Error("Failed to open data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer result.Cleanup()
	}

	var uploader images.Uploader
	if cfg.CloudinaryCloudName != "" {
		uploader = cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryPreset)
		logger.Info("Image uploads enabled", "cloud_name", cfg.CloudinaryCloudName)
	} else {
		logger.Info("Image uploads disabled - no Cloudinary configuration")
	}

	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
		} else {
			defer amqpClient.Close()
			events = amqpClient
			logger.Info("Change events enabled",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	wallets := services.NewWalletService(result.Store, uploader)
	transactions := services.NewTransactionService(result.Store, uploader, events)
	stats := services.NewStatsService(result.Store)

	srv := apphttp.NewServer(":"+cfg.Port, wallets, transactions, stats)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting walletbook server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

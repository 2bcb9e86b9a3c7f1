package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benx421/payment-gateway/merchant/internal/app"
	"github.com/benx421/payment-gateway/merchant/internal/config"
	"github.com/joho/godotenv"
)

func main() {
	//nolint:errcheck // .env is optional outside local development
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting merchant gateway",
		"port", cfg.Server.Port,
		"store", cfg.App.StoreDriver,
		"processor_env", cfg.Processor.Environment,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	gateway, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start gateway", "error", err)
		os.Exit(1)
	}
	//nolint:errcheck // Best effort on exit
	defer gateway.Close()

	handler, err := gateway.Handler()
	if err != nil {
		logger.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", "address", server.Addr, "public_base_url", cfg.App.PublicBaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/benx421/payment-gateway/merchant/internal/app"
	"github.com/benx421/payment-gateway/merchant/internal/config"
	"github.com/benx421/payment-gateway/merchant/internal/handlers"
	"github.com/joho/godotenv"
)

var handler *handlers.LambdaWebhookHandler

func init() {
	// Load environment variables for local testing.
	//nolint:errcheck // .env is optional
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	reconciler, _, err := app.BuildReconciler(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialise reconciler", "error", err)
		os.Exit(1)
	}

	handler = handlers.NewLambdaWebhookHandler(reconciler, logger)
}

func main() {
	lambda.Start(handler.Handle)
}

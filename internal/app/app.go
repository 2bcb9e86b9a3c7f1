// Package app assembles the merchant gateway from configuration: the transaction
// store, the processor gateway, the ledger sink and the services on top of them.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/benx421/payment-gateway/merchant/internal/config"
	"github.com/benx421/payment-gateway/merchant/internal/db"
	"github.com/benx421/payment-gateway/merchant/internal/handlers"
	"github.com/benx421/payment-gateway/merchant/internal/ledger"
	"github.com/benx421/payment-gateway/merchant/internal/middleware"
	"github.com/benx421/payment-gateway/merchant/internal/processor"
	"github.com/benx421/payment-gateway/merchant/internal/repository"
	"github.com/benx421/payment-gateway/merchant/internal/repository/dynamodb"
	"github.com/benx421/payment-gateway/merchant/internal/service"
	"github.com/benx421/payment-gateway/merchant/internal/signer"
)

// Stores is the persistence side of the gateway
type Stores struct {
	Transactions repository.TransactionRepository
	Idempotency  repository.IdempotencyRepository
	Health       service.HealthChecker
	close        func() error
}

// Close releases the store connections
func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// App holds the wired services
type App struct {
	Stores     *Stores
	Gateway    processor.Gateway
	Payments   *service.PaymentService
	Reconciler *service.ReconciliationService
	Status     *service.StatusPoller
	logger     *slog.Logger
}

// awsLoader loads the shared AWS configuration at most once
type awsLoader struct {
	cfg    *aws.Config
	loadFn func(ctx context.Context) (aws.Config, error)
}

func newAWSLoader() *awsLoader {
	return &awsLoader{
		loadFn: func(ctx context.Context) (aws.Config, error) {
			return awsconfig.LoadDefaultConfig(ctx)
		},
	}
}

func (l *awsLoader) load(ctx context.Context) (aws.Config, error) {
	if l.cfg != nil {
		return *l.cfg, nil
	}
	cfg, err := l.loadFn(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	l.cfg = &cfg
	return cfg, nil
}

// Build wires every component. The processor credentials must be configured.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	loader := newAWSLoader()

	stores, err := newStores(ctx, cfg, loader, logger)
	if err != nil {
		return nil, err
	}

	gateway, err := NewGateway(&cfg.Processor, logger)
	if err != nil {
		//nolint:errcheck // Already failing
		stores.Close()
		return nil, err
	}

	sink, err := newLedger(ctx, cfg, loader, logger)
	if err != nil {
		//nolint:errcheck // Already failing
		stores.Close()
		return nil, err
	}

	return &App{
		Stores:  stores,
		Gateway: gateway,
		Payments: service.NewPaymentService(stores.Transactions, gateway, service.PaymentConfig{
			PublicBaseURL: cfg.App.PublicBaseURL,
			Currency:      cfg.App.Currency,
		}, logger),
		Reconciler: service.NewReconciliationService(stores.Transactions, sink, logger),
		Status:     service.NewStatusPoller(gateway, logger),
		logger:     logger,
	}, nil
}

// BuildReconciler wires only what processor notifications need. No processor
// credentials are required.
func BuildReconciler(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*service.ReconciliationService, *Stores, error) {
	loader := newAWSLoader()

	stores, err := newStores(ctx, cfg, loader, logger)
	if err != nil {
		return nil, nil, err
	}

	sink, err := newLedger(ctx, cfg, loader, logger)
	if err != nil {
		//nolint:errcheck // Already failing
		stores.Close()
		return nil, nil, err
	}

	return service.NewReconciliationService(stores.Transactions, sink, logger), stores, nil
}

// Handler returns the HTTP API
func (a *App) Handler() (http.Handler, error) {
	h := handlers.NewHandler(a.Payments, a.Reconciler, a.Status, a.Stores.Health, a.logger)
	return handlers.NewRouter(h, a.Stores.Idempotency, a.logger)
}

// Close releases everything Build opened
func (a *App) Close() error {
	return a.Stores.Close()
}

// NewStores opens the configured transaction store
func NewStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stores, error) {
	return newStores(ctx, cfg, newAWSLoader(), logger)
}

func newStores(ctx context.Context, cfg *config.Config, loader *awsLoader, logger *slog.Logger) (*Stores, error) {
	switch cfg.App.StoreDriver {
	case config.StoreDriverPostgres:
		database, err := db.Connect(ctx, &cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			//nolint:errcheck // Already failing
			database.Close()
			return nil, err
		}
		return &Stores{
			Transactions: repository.NewTransactionRepository(database),
			Idempotency:  repository.NewIdempotencyRepository(database),
			Health:       database,
			close:        database.Close,
		}, nil

	case config.StoreDriverDynamoDB:
		awsCfg, err := loader.load(ctx)
		if err != nil {
			return nil, err
		}
		store := dynamodb.New(awsdynamodb.NewFromConfig(awsCfg), cfg.DynamoDB.TransactionsTable)
		logger.Info("using dynamodb transaction store", "table", cfg.DynamoDB.TransactionsTable)
		// TODO: move idempotency keys into a DynamoDB table with a TTL attribute so replays survive restarts
		return &Stores{
			Transactions: store,
			Idempotency:  repository.NewMemoryIdempotencyRepository(),
			Health:       store,
		}, nil

	case config.StoreDriverMemory:
		logger.Warn("using in-memory transaction store; records are lost on restart")
		store := repository.NewMemoryTransactionRepository()
		return &Stores{
			Transactions: store,
			Idempotency:  repository.NewMemoryIdempotencyRepository(),
			Health:       store,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.App.StoreDriver)
	}
}

// NewGateway builds the signed processor client, with failure injection in
// the sandbox and retries when more than one attempt is configured.
func NewGateway(cfg *config.ProcessorConfig, logger *slog.Logger) (processor.Gateway, error) {
	if cfg.MerchantID == "" || cfg.PrivateKeyPEM == "" {
		return nil, errors.New("processor credentials are required: set PROCESSOR_MERCHANT_ID and PROCESSOR_PRIVATE_KEY or PROCESSOR_PRIVATE_KEY_FILE")
	}

	s, err := signer.NewFromPEM(cfg.MerchantID, cfg.PrivateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to load processor signing key: %w", err)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = processor.BaseURLFor(cfg.Environment)
	}

	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: middleware.NewFailureInjectingTransport(http.DefaultTransport, cfg, logger),
	}

	client, err := processor.NewClient(processor.Config{
		BaseURL: baseURL,
		Timeout: cfg.Timeout,
	}, s, httpClient, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("processor gateway configured", "processor", *cfg, "base_url", baseURL)

	if cfg.MaxAttempts <= 1 {
		return client, nil
	}
	return processor.NewRetryingGateway(client, processor.RetryPolicy{
		MaxAttempts: cfg.MaxAttempts,
		BaseWait:    cfg.RetryBaseWait,
		MaxWait:     cfg.RetryMaxWait,
	}, logger), nil
}

func newLedger(ctx context.Context, cfg *config.Config, loader *awsLoader, logger *slog.Logger) (ledger.Ledger, error) {
	if cfg.Ledger.QueueURL == "" {
		return ledger.NewLogLedger(logger), nil
	}

	awsCfg, err := loader.load(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("publishing ledger entries to SQS", "queue_url", cfg.Ledger.QueueURL)
	return ledger.NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.Ledger.QueueURL), nil
}

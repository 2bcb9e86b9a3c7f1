package repository

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/benx421/payment-gateway/merchant/internal/config"
	"github.com/benx421/payment-gateway/merchant/internal/db"
	"github.com/benx421/payment-gateway/merchant/internal/models"
	"github.com/shopspring/decimal"
)

// setupTestDB connects to the database described by the DB_* environment.
// Tests are skipped when no database is reachable.
func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	database, err := db.Connect(ctx, &cfg.Database, testLogger())
	if err != nil {
		t.Skipf("skipping postgres test: %v", err)
	}

	if err := database.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return database
}

func cleanupTestDB(t *testing.T, database *db.DB) {
	t.Helper()
	if err := database.Close(); err != nil {
		log.Printf("failed to close test database: %v", err)
	}
}

func truncateTables(t *testing.T, database *db.DB) {
	t.Helper()

	tables := []string{"transactions", "idempotency_keys"}
	for _, table := range tables {
		_, err := database.ExecContext(context.Background(), "TRUNCATE TABLE "+table)
		if err != nil {
			t.Fatalf("failed to truncate table %s: %v", table, err)
		}
	}
}

func newPayment(id string, amount string) *models.Transaction {
	return &models.Transaction{
		ID:         id,
		Type:       models.TransactionTypePayment,
		Amount:     decimal.RequireFromString(amount),
		Currency:   "ETB",
		CustomerID: "cust_1",
		Status:     models.TransactionStatusInitiated,
		Details: models.OperationDetails{
			Flow:               models.FlowHosted,
			Reason:             "order 42",
			NotifyURL:          "https://shop.example/api/v1/webhooks/payments",
			SuccessRedirectURL: "https://shop.example/payment/success",
		},
	}
}

func newPayout(id string, amount string) *models.Transaction {
	return &models.Transaction{
		ID:         id,
		Type:       models.TransactionTypePayout,
		Amount:     decimal.RequireFromString(amount),
		Currency:   "ETB",
		CustomerID: "cust_2",
		Status:     models.TransactionStatusInitiated,
		Details: models.OperationDetails{
			Flow:          models.FlowPayout,
			Reason:        "prize",
			PhoneNumber:   "+251911000000",
			PaymentMethod: "Telebirr",
		},
	}
}

func amountPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

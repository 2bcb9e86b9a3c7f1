package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benx421/payment-gateway/merchant/internal/db"
	"github.com/benx421/payment-gateway/merchant/internal/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

const transactionColumns = `
	id, third_party_id, type, amount, currency, customer_id, status,
	details, webhook_log, created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

// transactionRepository implements TransactionRepository on PostgreSQL
type transactionRepository struct {
	db *db.DB
}

// NewTransactionRepository creates a new PostgreSQL backed TransactionRepository
func NewTransactionRepository(database *db.DB) TransactionRepository {
	return &transactionRepository{db: database}
}

// Create inserts a new transaction. An existing id yields models.ErrDuplicateTransaction
// and leaves the stored row untouched.
func (r *transactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	now := time.Now().UTC()
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = now
	}
	txn.UpdatedAt = txn.CreatedAt
	if txn.WebhookLog == nil {
		txn.WebhookLog = []models.WebhookEntry{}
	}

	details, err := json.Marshal(txn.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal details: %w", err)
	}
	webhookLog, err := encodeWebhookLog(txn.WebhookLog)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.db.ExecContext(ctx, query,
		txn.ID,
		nullString(txn.ThirdPartyID),
		txn.Type,
		txn.Amount,
		txn.Currency,
		txn.CustomerID,
		txn.Status,
		string(details),
		string(webhookLog),
		txn.CreatedAt,
		txn.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return models.ErrDuplicateTransaction
	}
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// FindByID retrieves a transaction by its transaction id
func (r *transactionRepository) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	txn, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction by id: %w", err)
	}

	return txn, nil
}

// BindThirdPartyID records the processor's id for a transaction. Binding the same
// value twice is a no-op; a different value yields models.ErrThirdPartyIDConflict.
func (r *transactionRepository) BindThirdPartyID(ctx context.Context, id, thirdPartyID string) error {
	query := `
		UPDATE transactions
		SET third_party_id = $2, updated_at = NOW()
		WHERE id = $1 AND third_party_id IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id, thirdPartyID)
	if isUniqueViolation(err) {
		return models.ErrThirdPartyIDConflict
	}
	if err != nil {
		return fmt.Errorf("failed to bind third party id: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 1 {
		return nil
	}

	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.ThirdPartyID != thirdPartyID {
		return models.ErrThirdPartyIDConflict
	}

	return nil
}

// ApplyNotification locks the matching row, appends the log entry and applies the
// status transition when allowed, all in one database transaction.
func (r *transactionRepository) ApplyNotification(ctx context.Context, key CorrelationKey, update StatusUpdate) (*UpdateResult, error) {
	column := "id"
	if key.Kind == ByThirdPartyID {
		column = "third_party_id"
	}

	var result *UpdateResult
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + column + ` = $1 FOR UPDATE`

		txn, err := scanTransaction(tx.QueryRowContext(ctx, query, key.Value))
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock transaction: %w", err)
		}

		result = ApplyUpdate(txn, update)

		webhookLog, err := encodeWebhookLog(txn.WebhookLog)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE transactions
			SET status = $2, webhook_log = $3, updated_at = $4
			WHERE id = $1
		`, txn.ID, txn.Status, string(webhookLog), txn.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		txn          models.Transaction
		thirdPartyID sql.NullString
		details      []byte
		webhookLog   []byte
	)

	err := row.Scan(
		&txn.ID,
		&thirdPartyID,
		&txn.Type,
		&txn.Amount,
		&txn.Currency,
		&txn.CustomerID,
		&txn.Status,
		&details,
		&webhookLog,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	txn.ThirdPartyID = thirdPartyID.String
	if err := json.Unmarshal(details, &txn.Details); err != nil {
		return nil, fmt.Errorf("failed to unmarshal details: %w", err)
	}
	if txn.WebhookLog, err = decodeWebhookLog(webhookLog); err != nil {
		return nil, err
	}

	return &txn, nil
}

// webhookLogRow is the stored form of a log entry. The payload is kept as a JSON
// string so the received bytes survive the column's normalisation.
type webhookLogRow struct {
	ReceivedAt     time.Time                 `json:"receivedAt"`
	Amount         *decimal.Decimal          `json:"amount,omitempty"`
	Source         models.NotificationSource `json:"source"`
	Status         models.TransactionStatus  `json:"status"`
	RawPayload     string                    `json:"rawPayload"`
	AmountMismatch bool                      `json:"amountMismatch,omitempty"`
}

func encodeWebhookLog(entries []models.WebhookEntry) ([]byte, error) {
	rows := make([]webhookLogRow, len(entries))
	for i, e := range entries {
		rows[i] = webhookLogRow{
			ReceivedAt:     e.ReceivedAt,
			Amount:         e.Amount,
			Source:         e.Source,
			Status:         e.Status,
			RawPayload:     string(e.RawPayload),
			AmountMismatch: e.AmountMismatch,
		}
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal webhook log: %w", err)
	}
	return raw, nil
}

func decodeWebhookLog(raw []byte) ([]models.WebhookEntry, error) {
	var rows []webhookLogRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal webhook log: %w", err)
	}
	entries := make([]models.WebhookEntry, len(rows))
	for i, r := range rows {
		entries[i] = models.WebhookEntry{
			ReceivedAt:     r.ReceivedAt,
			Amount:         r.Amount,
			Source:         r.Source,
			Status:         r.Status,
			RawPayload:     json.RawMessage(r.RawPayload),
			AmountMismatch: r.AmountMismatch,
		}
	}
	return entries, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

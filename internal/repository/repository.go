// Package repository provides data access layer implementations for the merchant gateway.
package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/benx421/payment-gateway/merchant/internal/models"
	"github.com/shopspring/decimal"
)

// CorrelationKind selects which identifier a notification is matched on
type CorrelationKind int

const (
	// ByTransactionID matches the locally generated transaction id
	ByTransactionID CorrelationKind = iota
	// ByThirdPartyID matches the processor-assigned transaction id
	ByThirdPartyID
)

func (k CorrelationKind) String() string {
	if k == ByThirdPartyID {
		return "third_party_id"
	}
	return "transaction_id"
}

// CorrelationKey identifies the transaction a notification refers to.
// Matching is exact: a transaction id never matches by third-party id and vice versa.
type CorrelationKey struct {
	Value string
	Kind  CorrelationKind
}

// StatusUpdate is a processor-reported status change to record.
// AmountUnreadable marks a notification whose amount was present but not a number.
type StatusUpdate struct {
	ReceivedAt       time.Time
	Amount           *decimal.Decimal
	RawPayload       json.RawMessage
	Source           models.NotificationSource
	Status           models.TransactionStatus
	AmountUnreadable bool
}

// UpdateResult describes the outcome of ApplyNotification.
// Transitioned is true only for the call that actually changed the status.
type UpdateResult struct {
	Transaction    *models.Transaction
	Entry          models.WebhookEntry
	PreviousStatus models.TransactionStatus
	Transitioned   bool
}

// TransactionRepository defines the interface for transaction data access
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	FindByID(ctx context.Context, id string) (*models.Transaction, error)
	BindThirdPartyID(ctx context.Context, id, thirdPartyID string) error
	ApplyNotification(ctx context.Context, key CorrelationKey, update StatusUpdate) (*UpdateResult, error)
}

// IdempotencyRepository stores responses of caller-facing POST requests for replay
type IdempotencyRepository interface {
	Get(ctx context.Context, key, requestPath string) (*models.IdempotencyKey, error)
	Store(ctx context.Context, idemKey *models.IdempotencyKey) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ApplyUpdate records update on txn in place. The log entry is always appended;
// the status changes only when the transition is allowed. Callers must hold
// whatever lock makes the read-modify-write atomic.
func ApplyUpdate(txn *models.Transaction, update StatusUpdate) *UpdateResult {
	entry := newWebhookEntry(txn, update)
	previous := txn.Status
	transitioned := models.CanTransition(previous, update.Status)

	txn.WebhookLog = append(txn.WebhookLog, entry)
	if transitioned {
		txn.Status = update.Status
	}
	txn.UpdatedAt = entry.ReceivedAt

	return &UpdateResult{
		Transaction:    txn,
		Entry:          entry,
		PreviousStatus: previous,
		Transitioned:   transitioned,
	}
}

// newWebhookEntry builds the log entry for update. A reported amount that differs
// from the recorded one, or cannot be read, is flagged; the recorded amount is never changed.
func newWebhookEntry(txn *models.Transaction, update StatusUpdate) models.WebhookEntry {
	receivedAt := update.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	entry := models.WebhookEntry{
		ReceivedAt: receivedAt,
		Amount:     update.Amount,
		Source:     update.Source,
		Status:     update.Status,
		RawPayload: update.RawPayload,
	}
	if update.AmountUnreadable || (update.Amount != nil && !update.Amount.Equal(txn.Amount)) {
		entry.AmountMismatch = true
	}

	return entry
}

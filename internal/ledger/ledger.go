// Package ledger publishes the balance side effect of a settled transaction.
// The ledger itself is owned by another system; this package only emits entries.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/benx421/payment-gateway/merchant/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction of a ledger entry relative to the customer's account
type Direction string

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

// Entry is one debit or credit against a customer account
type Entry struct {
	OccurredAt    time.Time       `json:"occurredAt"`
	Amount        decimal.Decimal `json:"amount"`
	ID            string          `json:"entryId"`
	TransactionID string          `json:"transactionId"`
	AccountID     string          `json:"accountId"`
	Direction     Direction       `json:"direction"`
	Currency      string          `json:"currency"`
	Description   string          `json:"description,omitempty"`
}

// Ledger records entries produced by settled transactions
type Ledger interface {
	Record(ctx context.Context, entry Entry) error
}

// EntryFor builds the entry a transaction produces once it reaches SUCCESS.
// Payments credit the customer, payouts debit them. The second result is false
// when the transaction has no balance effect.
func EntryFor(txn *models.Transaction, occurredAt time.Time) (Entry, bool) {
	if txn.Status != models.TransactionStatusSuccess {
		return Entry{}, false
	}

	var direction Direction
	switch txn.Type {
	case models.TransactionTypePayment:
		direction = DirectionCredit
	case models.TransactionTypePayout:
		direction = DirectionDebit
	default:
		return Entry{}, false
	}

	return Entry{
		OccurredAt:    occurredAt.UTC(),
		Amount:        txn.Amount,
		ID:            uuid.NewString(),
		TransactionID: txn.ID,
		AccountID:     txn.CustomerID,
		Direction:     direction,
		Currency:      txn.Currency,
		Description:   fmt.Sprintf("%s %s", txn.Details.Flow, txn.Details.Reason),
	}, true
}

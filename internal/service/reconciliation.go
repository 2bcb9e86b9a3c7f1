package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/benx421/payment-gateway/merchant/internal/ledger"
	"github.com/benx421/payment-gateway/merchant/internal/models"
	"github.com/benx421/payment-gateway/merchant/internal/repository"
	"github.com/shopspring/decimal"
)

// AckStatusReceived is the acknowledgement status returned for every accepted notification
const AckStatusReceived = "received"

// Acknowledgement is returned to the processor once a notification is recorded
type Acknowledgement struct {
	Status            string                   `json:"status"`
	TransactionID     string                   `json:"transactionId"`
	ThirdPartyID      string                   `json:"thirdPartyId,omitempty"`
	TransactionStatus models.TransactionStatus `json:"transactionStatus"`
	Duplicate         bool                     `json:"duplicate"`
	LedgerApplied     bool                     `json:"ledgerApplied"`
	AmountMismatch    bool                     `json:"amountMismatch,omitempty"`
}

// collectionNotification is sent for hosted and direct payments
type collectionNotification struct {
	ThirdPartyID string          `json:"thirdPartyId"`
	Status       string          `json:"Status"`
	TotalAmount  json.RawMessage `json:"totalAmount"`
}

// payoutNotification is sent for payouts
type payoutNotification struct {
	TransactionID string          `json:"transactionId"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"paymentMethod"`
	Amount        json.RawMessage `json:"amount"`
}

// ReconciliationService applies processor notifications to stored transactions.
// Every notification is logged on its transaction; the ledger is touched only by
// the notification that moves a transaction into SUCCESS.
type ReconciliationService struct {
	repo   repository.TransactionRepository
	ledger ledger.Ledger
	logger *slog.Logger
	now    func() time.Time
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	repo repository.TransactionRepository,
	l ledger.Ledger,
	logger *slog.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		repo:   repo,
		ledger: l,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// HandleCollectionNotification records a payment notification, correlated by the processor's id
func (s *ReconciliationService) HandleCollectionNotification(ctx context.Context, raw []byte) (*Acknowledgement, error) {
	var n collectionNotification
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, malformed(fmt.Sprintf("invalid payment notification: %v", err))
	}
	if n.ThirdPartyID == "" {
		return nil, malformed("payment notification is missing thirdPartyId")
	}
	status := models.NormalizeStatus(n.Status)
	if status == "" {
		return nil, malformed("payment notification is missing Status")
	}

	amount, readable := parseAmount(n.TotalAmount)
	key := repository.CorrelationKey{Kind: repository.ByThirdPartyID, Value: n.ThirdPartyID}
	return s.apply(ctx, key, repository.StatusUpdate{
		ReceivedAt:       s.now(),
		Amount:           amount,
		AmountUnreadable: !readable,
		RawPayload:       json.RawMessage(raw),
		Source:           models.NotificationSourceCollection,
		Status:           status,
	})
}

// HandlePayoutNotification records a payout notification, correlated by our transaction id
func (s *ReconciliationService) HandlePayoutNotification(ctx context.Context, raw []byte) (*Acknowledgement, error) {
	var n payoutNotification
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, malformed(fmt.Sprintf("invalid payout notification: %v", err))
	}
	if n.TransactionID == "" {
		return nil, malformed("payout notification is missing transactionId")
	}
	status := models.NormalizeStatus(n.Status)
	if status == "" {
		return nil, malformed("payout notification is missing status")
	}

	amount, readable := parseAmount(n.Amount)
	key := repository.CorrelationKey{Kind: repository.ByTransactionID, Value: n.TransactionID}
	return s.apply(ctx, key, repository.StatusUpdate{
		ReceivedAt:       s.now(),
		Amount:           amount,
		AmountUnreadable: !readable,
		RawPayload:       json.RawMessage(raw),
		Source:           models.NotificationSourcePayout,
		Status:           status,
	})
}

func (s *ReconciliationService) apply(ctx context.Context, key repository.CorrelationKey, update repository.StatusUpdate) (*Acknowledgement, error) {
	result, err := s.repo.ApplyNotification(ctx, key, update)
	if errors.Is(err, models.ErrNotFound) {
		s.logger.Warn("notification for unknown transaction",
			"correlation", key.Kind.String(),
			"value", key.Value,
			"status", update.Status,
		)
		return nil, &ServiceError{
			Code:    ErrCodeTransactionNotFound,
			Message: fmt.Sprintf("no transaction matches %s %s", key.Kind, key.Value),
		}
	}
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to record notification",
			Err:     err,
		}
	}

	txn := result.Transaction
	ack := &Acknowledgement{
		Status:            AckStatusReceived,
		TransactionID:     txn.ID,
		ThirdPartyID:      txn.ThirdPartyID,
		TransactionStatus: txn.Status,
		Duplicate:         !result.Transitioned,
		AmountMismatch:    result.Entry.AmountMismatch,
	}

	if result.Entry.AmountMismatch {
		reported := "unreadable"
		if update.Amount != nil {
			reported = update.Amount.String()
		}
		s.logger.Error("notification amount does not match transaction",
			"transaction_id", txn.ID,
			"expected", txn.Amount.String(),
			"reported", reported,
			"status", update.Status,
		)
	}

	if !result.Transitioned {
		s.logger.Info("notification recorded without status change",
			"transaction_id", txn.ID,
			"status", txn.Status,
			"reported_status", update.Status,
		)
		return ack, nil
	}

	s.logger.Info("transaction status changed",
		"transaction_id", txn.ID,
		"from", result.PreviousStatus,
		"to", txn.Status,
	)

	if txn.Status.IsTerminal() && !result.Entry.AmountMismatch {
		ack.LedgerApplied = s.recordLedgerEntry(ctx, txn, result.Entry.ReceivedAt)
	}

	return ack, nil
}

// recordLedgerEntry fires the balance side effect. The status change is already
// committed, so a failure is reported and never retried here.
func (s *ReconciliationService) recordLedgerEntry(ctx context.Context, txn *models.Transaction, occurredAt time.Time) bool {
	entry, ok := ledger.EntryFor(txn, occurredAt)
	if !ok {
		return false
	}

	if err := s.ledger.Record(ctx, entry); err != nil {
		s.logger.Error("failed to record ledger entry",
			"transaction_id", txn.ID,
			"entry_id", entry.ID,
			"direction", entry.Direction,
			"error", err,
		)
		return false
	}

	return true
}

// parseAmount reads a reported amount given as a JSON number or string.
// A missing or null amount is nil; readable is false only for a value that is not a number.
func parseAmount(raw json.RawMessage) (amount *decimal.Decimal, readable bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, true
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return nil, false
	}
	return &d, true
}

func malformed(msg string) *ServiceError {
	return &ServiceError{Code: ErrCodeMalformedNotification, Message: msg}
}

package service

import (
	"context"
	"encoding/json"

	"github.com/benx421/payment-gateway/merchant/internal/models"
)

// HealthChecker validates system health.
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// Payments handles caller-initiated money movement
type Payments interface {
	InitiateHostedPayment(ctx context.Context, in HostedPaymentInput) (*HostedPaymentResult, error)
	InitiateDirectPayment(ctx context.Context, in DirectPaymentInput) (*ProcessorResult, error)
	InitiatePayout(ctx context.Context, in PayoutInput) (*ProcessorResult, error)
	GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)
	BindRedirect(ctx context.Context, transactionID, thirdPartyID string) (*models.Transaction, error)
}

// Reconciler applies processor notifications to stored transactions
type Reconciler interface {
	HandleCollectionNotification(ctx context.Context, raw []byte) (*Acknowledgement, error)
	HandlePayoutNotification(ctx context.Context, raw []byte) (*Acknowledgement, error)
}

// StatusChecker asks the processor for the authoritative status of a transaction
type StatusChecker interface {
	CheckStatus(ctx context.Context, transactionID string) (json.RawMessage, error)
}

// Ensure concrete types implement interfaces
var (
	_ Payments      = (*PaymentService)(nil)
	_ Reconciler    = (*ReconciliationService)(nil)
	_ StatusChecker = (*StatusPoller)(nil)
)

package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/benx421/payment-gateway/merchant/internal/processor"
)

// StatusPoller asks the processor for a transaction's status on demand.
// It never writes to the store; notifications remain the only source of transitions.
type StatusPoller struct {
	gateway processor.Gateway
	logger  *slog.Logger
}

// NewStatusPoller creates a new StatusPoller
func NewStatusPoller(gateway processor.Gateway, logger *slog.Logger) *StatusPoller {
	return &StatusPoller{gateway: gateway, logger: logger}
}

// CheckStatus returns the processor's answer verbatim
func (p *StatusPoller) CheckStatus(ctx context.Context, transactionID string) (json.RawMessage, error) {
	if err := ValidateTransactionID(transactionID); err != nil {
		return nil, &ServiceError{Code: ErrCodeInvalidRequest, Message: err.Error()}
	}

	raw, err := p.gateway.CheckTransactionStatus(ctx, transactionID)
	if err != nil {
		p.logger.Warn("status check failed", "transaction_id", transactionID, "error", err)
		return nil, processorError(err)
	}

	return raw, nil
}

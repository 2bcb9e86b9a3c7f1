package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/benx421/payment-gateway/merchant/internal/processor"
	"github.com/benx421/payment-gateway/merchant/internal/signer"
)

// ServiceError represents a business logic error with a code
type ServiceError struct {
	Err     error
	Message string
	Code    string
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeInvalidRequest        = "invalid_request"
	ErrCodeInvalidAmount         = "invalid_amount"
	ErrCodeDuplicateTransaction  = "duplicate_transaction"
	ErrCodeTransactionNotFound   = "transaction_not_found"
	ErrCodeThirdPartyIDConflict  = "third_party_id_conflict"
	ErrCodeMalformedNotification = "malformed_notification"
	ErrCodeProcessorRejected     = "processor_rejected"
	ErrCodeProcessorUnavailable  = "processor_unavailable"
	ErrCodeSigningFailed         = "signing_failed"
	ErrCodeInternalError         = "internal_error"
)

// processorError classifies a gateway failure. The original error is kept in
// Err so callers can still reach the processor's response body.
func processorError(err error) *ServiceError {
	var (
		signErr      *signer.SigningError
		rejection    *processor.RejectionError
		transportErr *processor.TransportError
	)

	switch {
	case errors.As(err, &signErr):
		return &ServiceError{Code: ErrCodeSigningFailed, Message: "failed to sign processor request", Err: err}
	case errors.As(err, &rejection):
		return &ServiceError{Code: ErrCodeProcessorRejected, Message: "processor rejected the request", Err: err}
	case errors.As(err, &transportErr),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return &ServiceError{Code: ErrCodeProcessorUnavailable, Message: "processor unavailable", Err: err}
	default:
		return &ServiceError{Code: ErrCodeInternalError, Message: "processor call failed", Err: err}
	}
}

package api

import (
	"encoding/json"

	"github.com/benx421/payment-gateway/merchant/internal/models"
	"github.com/shopspring/decimal"
)

// ErrorCode is the machine-readable error identifier in Error responses
type ErrorCode string

const (
	ErrorCodeInvalidRequest        ErrorCode = "invalid_request"
	ErrorCodeInvalidAmount         ErrorCode = "invalid_amount"
	ErrorCodeDuplicateTransaction  ErrorCode = "duplicate_transaction"
	ErrorCodeTransactionNotFound   ErrorCode = "transaction_not_found"
	ErrorCodeThirdPartyIDConflict  ErrorCode = "third_party_id_conflict"
	ErrorCodeMalformedNotification ErrorCode = "malformed_notification"
	ErrorCodeProcessorRejected     ErrorCode = "processor_rejected"
	ErrorCodeProcessorUnavailable  ErrorCode = "processor_unavailable"
	ErrorCodeSigningFailed         ErrorCode = "signing_failed"
	ErrorCodeRequestInProgress     ErrorCode = "request_in_progress"
	ErrorCodeNotFound              ErrorCode = "not_found"
	ErrorCodeInternalError         ErrorCode = "internal_error"
)

// Error is the body of every non-2xx JSON response
type Error struct {
	Details json.RawMessage `json:"details,omitempty"`
	Error   ErrorCode       `json:"error"`
	Message string          `json:"message"`
}

// HealthStatus is the overall service health
type HealthStatus string

const (
	Healthy   HealthStatus = "healthy"
	Unhealthy HealthStatus = "unhealthy"
)

// Health is the body of GET /health
type Health struct {
	Status HealthStatus `json:"status"`
}

// HostedPaymentRequest is the body of POST /api/v1/payments
type HostedPaymentRequest struct {
	Amount             decimal.Decimal `json:"amount"`
	TransactionId      string          `json:"transactionId,omitempty"`
	CustomerId         string          `json:"customerId,omitempty"`
	Reason             string          `json:"reason"`
	PhoneNumber        string          `json:"phoneNumber,omitempty"`
	SuccessRedirectUrl string          `json:"successRedirectUrl,omitempty"`
	FailureRedirectUrl string          `json:"failureRedirectUrl,omitempty"`
	CancelRedirectUrl  string          `json:"cancelRedirectUrl,omitempty"`
	NotifyUrl          string          `json:"notifyUrl,omitempty"`
}

// WalletOperationRequest is the body of POST /api/v1/payments/direct and POST /api/v1/payouts
type WalletOperationRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	TransactionId string          `json:"transactionId,omitempty"`
	CustomerId    string          `json:"customerId,omitempty"`
	Reason        string          `json:"reason"`
	PhoneNumber   string          `json:"phoneNumber"`
	PaymentMethod string          `json:"paymentMethod"`
	NotifyUrl     string          `json:"notifyUrl,omitempty"`
}

// HostedPaymentResponse is the 201 body of POST /api/v1/payments
type HostedPaymentResponse struct {
	Transaction *models.Transaction `json:"transaction"`
	PaymentUrl  string              `json:"paymentUrl"`
}

// ProcessorResponse is the 201 body of the wallet operations
type ProcessorResponse struct {
	Transaction       *models.Transaction `json:"transaction"`
	ProcessorResponse json.RawMessage     `json:"processorResponse,omitempty"`
}

// PaymentOutcome is the result a landing page reports to the customer
type PaymentOutcome string

const (
	PaymentOutcomeSuccess  PaymentOutcome = "success"
	PaymentOutcomeFailed   PaymentOutcome = "failed"
	PaymentOutcomeCanceled PaymentOutcome = "canceled"
)

// LandingResponse is the body of the checkout landing pages. The outcome is what
// the customer was told; the transaction status only moves on notifications.
type LandingResponse struct {
	Transaction *models.Transaction `json:"transaction"`
	Outcome     PaymentOutcome      `json:"outcome"`
	PaymentVia  string              `json:"paymentVia,omitempty"`
}

package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the direction of a money movement
type TransactionType string

const (
	TransactionTypePayment TransactionType = "PAYMENT"
	TransactionTypePayout  TransactionType = "PAYOUT"
)

// TransactionStatus represents the status of a transaction
type TransactionStatus string

const (
	TransactionStatusInitiated TransactionStatus = "INITIATED"
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusSuccess   TransactionStatus = "SUCCESS"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// statusAliases maps processor spellings onto the local vocabulary
var statusAliases = map[string]TransactionStatus{
	"CANCELED":  TransactionStatusCancelled,
	"COMPLETED": TransactionStatusSuccess,
	"SUCCEEDED": TransactionStatusSuccess,
	"FAILURE":   TransactionStatusFailed,
}

// NormalizeStatus uppercases a processor-reported status and folds known aliases.
// Unknown values are kept (uppercased) and treated as non-terminal.
func NormalizeStatus(raw string) TransactionStatus {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if alias, ok := statusAliases[s]; ok {
		return alias
	}
	return TransactionStatus(s)
}

// IsTerminal reports whether no further status change is allowed
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionStatusSuccess, TransactionStatusFailed, TransactionStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransition checks if a status transition is allowed.
// Progress is forward only: terminal states are final and nothing returns to INITIATED.
func CanTransition(from, to TransactionStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == "" || to == TransactionStatusInitiated || to == from {
		return false
	}
	return true
}

// Flow discriminates the operation-specific details of a transaction
type Flow string

const (
	FlowHosted Flow = "HOSTED"
	FlowDirect Flow = "DIRECT"
	FlowPayout Flow = "PAYOUT"
)

// OperationDetails holds the fields that only make sense for one flow.
// Redirect URLs are set for HOSTED, phone number and payment method for DIRECT and PAYOUT.
type OperationDetails struct {
	Flow               Flow   `json:"flow"`
	Reason             string `json:"reason,omitempty"`
	NotifyURL          string `json:"notifyUrl,omitempty"`
	SuccessRedirectURL string `json:"successRedirectUrl,omitempty"`
	FailureRedirectURL string `json:"failureRedirectUrl,omitempty"`
	CancelRedirectURL  string `json:"cancelRedirectUrl,omitempty"`
	PhoneNumber        string `json:"phoneNumber,omitempty"`
	PaymentMethod      string `json:"paymentMethod,omitempty"`
}

// NotificationSource identifies which processor callback produced a webhook entry
type NotificationSource string

const (
	NotificationSourceCollection NotificationSource = "COLLECTION"
	NotificationSourcePayout     NotificationSource = "PAYOUT"
)

// WebhookEntry is one received notification. Entries are appended, never edited.
type WebhookEntry struct {
	ReceivedAt     time.Time          `json:"receivedAt"`
	Amount         *decimal.Decimal   `json:"amount,omitempty"`
	Source         NotificationSource `json:"source"`
	Status         TransactionStatus  `json:"status"`
	RawPayload     json.RawMessage    `json:"rawPayload"`
	AmountMismatch bool               `json:"amountMismatch,omitempty"`
}

// Transaction is the local record of a money-movement attempt
type Transaction struct {
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	Amount       decimal.Decimal   `json:"amount"`
	Details      OperationDetails  `json:"details"`
	WebhookLog   []WebhookEntry    `json:"webhookLog"`
	ID           string            `json:"transactionId"`
	ThirdPartyID string            `json:"thirdPartyId,omitempty"`
	CustomerID   string            `json:"customerId,omitempty"`
	Currency     string            `json:"currency"`
	Type         TransactionType   `json:"type"`
	Status       TransactionStatus `json:"status"`
}

// IdempotencyKey tracks processed requests to prevent duplicate initiations
type IdempotencyKey struct {
	CreatedAt      time.Time `db:"created_at"`
	Key            string    `db:"key"`
	RequestPath    string    `db:"request_path"`
	ResponseBody   string    `db:"response_body"`
	ResponseStatus int       `db:"response_status"`
}

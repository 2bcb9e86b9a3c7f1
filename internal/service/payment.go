package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/benx421/payment-gateway/merchant/internal/models"
	"github.com/benx421/payment-gateway/merchant/internal/processor"
	"github.com/benx421/payment-gateway/merchant/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionIDPrefix marks ids generated by the service
const TransactionIDPrefix = "txn_"

// Callback paths, relative to the public base URL
const (
	PaymentNotifyPath  = "/api/v1/webhooks/payments"
	PayoutNotifyPath   = "/api/v1/webhooks/payouts"
	SuccessLandingPath = "/payment/success"
	FailureLandingPath = "/payment/failed"
	CancelLandingPath  = "/payment/canceled"
)

// PaymentConfig holds defaults applied to caller requests
type PaymentConfig struct {
	PublicBaseURL string
	Currency      string
}

// HostedPaymentInput is a request to collect a payment on the processor's hosted page.
// Empty URLs default to this service's own callback and landing routes.
type HostedPaymentInput struct {
	Amount             decimal.Decimal
	TransactionID      string
	CustomerID         string
	Reason             string
	PhoneNumber        string
	SuccessRedirectURL string
	FailureRedirectURL string
	CancelRedirectURL  string
	NotifyURL          string
}

// HostedPaymentResult carries the page the customer must visit
type HostedPaymentResult struct {
	Transaction *models.Transaction
	PaymentURL  string
}

// DirectPaymentInput is a server-initiated charge against a customer's wallet
type DirectPaymentInput struct {
	Amount        decimal.Decimal
	TransactionID string
	CustomerID    string
	Reason        string
	PhoneNumber   string
	PaymentMethod string
	NotifyURL     string
}

// PayoutInput is a disbursement to a customer's wallet
type PayoutInput struct {
	Amount        decimal.Decimal
	TransactionID string
	CustomerID    string
	Reason        string
	PhoneNumber   string
	PaymentMethod string
	NotifyURL     string
}

// ProcessorResult pairs the local record with the processor's raw answer
type ProcessorResult struct {
	Transaction       *models.Transaction
	ProcessorResponse json.RawMessage
}

// PaymentService creates local transaction records and initiates them with the processor
type PaymentService struct {
	repo    repository.TransactionRepository
	gateway processor.Gateway
	logger  *slog.Logger
	newID   func() string
	cfg     PaymentConfig
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	repo repository.TransactionRepository,
	gateway processor.Gateway,
	cfg PaymentConfig,
	logger *slog.Logger,
) *PaymentService {
	if cfg.Currency == "" {
		cfg.Currency = "ETB"
	}
	return &PaymentService{
		repo:    repo,
		gateway: gateway,
		logger:  logger,
		newID:   func() string { return TransactionIDPrefix + uuid.NewString() },
		cfg:     cfg,
	}
}

// InitiateHostedPayment records the payment and asks the processor for a payment page
func (s *PaymentService) InitiateHostedPayment(ctx context.Context, in HostedPaymentInput) (*HostedPaymentResult, error) {
	if in.TransactionID == "" {
		in.TransactionID = s.newID()
	}
	if in.NotifyURL == "" {
		in.NotifyURL = s.cfg.PublicBaseURL + PaymentNotifyPath
	}
	if in.SuccessRedirectURL == "" {
		in.SuccessRedirectURL = s.landingURL(SuccessLandingPath, in.TransactionID)
	}
	if in.FailureRedirectURL == "" {
		in.FailureRedirectURL = s.landingURL(FailureLandingPath, in.TransactionID)
	}
	if in.CancelRedirectURL == "" {
		in.CancelRedirectURL = s.landingURL(CancelLandingPath, in.TransactionID)
	}

	if err := validateHostedPayment(in); err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		ID:         in.TransactionID,
		Type:       models.TransactionTypePayment,
		Amount:     in.Amount,
		Currency:   s.cfg.Currency,
		CustomerID: in.CustomerID,
		Status:     models.TransactionStatusInitiated,
		Details: models.OperationDetails{
			Flow:               models.FlowHosted,
			Reason:             in.Reason,
			NotifyURL:          in.NotifyURL,
			SuccessRedirectURL: in.SuccessRedirectURL,
			FailureRedirectURL: in.FailureRedirectURL,
			CancelRedirectURL:  in.CancelRedirectURL,
			PhoneNumber:        in.PhoneNumber,
		},
	}
	if err := s.create(ctx, txn); err != nil {
		return nil, err
	}

	page, err := s.gateway.InitiateHostedPayment(ctx, processor.HostedPaymentRequest{
		Amount:             in.Amount,
		ID:                 in.TransactionID,
		Reason:             in.Reason,
		SuccessRedirectURL: in.SuccessRedirectURL,
		FailureRedirectURL: in.FailureRedirectURL,
		CancelRedirectURL:  in.CancelRedirectURL,
		NotifyURL:          in.NotifyURL,
		PhoneNumber:        in.PhoneNumber,
	})
	if err != nil {
		s.logger.Warn("hosted payment initiation failed", "transaction_id", txn.ID, "error", err)
		return nil, processorError(err)
	}

	s.bind(ctx, txn, page.ProcessorTxnID)

	s.logger.Info("hosted payment initiated", "transaction_id", txn.ID, "amount", txn.Amount.String())

	return &HostedPaymentResult{Transaction: txn, PaymentURL: page.URL}, nil
}

// InitiateDirectPayment records the payment and charges the customer's wallet directly
func (s *PaymentService) InitiateDirectPayment(ctx context.Context, in DirectPaymentInput) (*ProcessorResult, error) {
	if in.TransactionID == "" {
		in.TransactionID = s.newID()
	}
	if in.NotifyURL == "" {
		in.NotifyURL = s.cfg.PublicBaseURL + PaymentNotifyPath
	}

	if err := validateWalletOperation(in.TransactionID, in.Amount, in.PhoneNumber, in.PaymentMethod, in.NotifyURL); err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		ID:         in.TransactionID,
		Type:       models.TransactionTypePayment,
		Amount:     in.Amount,
		Currency:   s.cfg.Currency,
		CustomerID: in.CustomerID,
		Status:     models.TransactionStatusInitiated,
		Details: models.OperationDetails{
			Flow:          models.FlowDirect,
			Reason:        in.Reason,
			NotifyURL:     in.NotifyURL,
			PhoneNumber:   in.PhoneNumber,
			PaymentMethod: in.PaymentMethod,
		},
	}
	if err := s.create(ctx, txn); err != nil {
		return nil, err
	}

	raw, err := s.gateway.DirectPayment(ctx, processor.DirectPaymentRequest{
		Amount:        in.Amount,
		ID:            in.TransactionID,
		Reason:        in.Reason,
		NotifyURL:     in.NotifyURL,
		PhoneNumber:   in.PhoneNumber,
		PaymentMethod: in.PaymentMethod,
	})
	if err != nil {
		s.logger.Warn("direct payment failed", "transaction_id", txn.ID, "error", err)
		return nil, processorError(err)
	}

	s.bind(ctx, txn, processor.ProcessorTxnID(raw))

	s.logger.Info("direct payment initiated", "transaction_id", txn.ID, "amount", txn.Amount.String())

	return &ProcessorResult{Transaction: txn, ProcessorResponse: raw}, nil
}

// InitiatePayout records the payout and sends the funds to the customer's wallet.
// Payout notifications are correlated by transaction id, so no processor id is bound.
func (s *PaymentService) InitiatePayout(ctx context.Context, in PayoutInput) (*ProcessorResult, error) {
	if in.TransactionID == "" {
		in.TransactionID = s.newID()
	}
	if in.NotifyURL == "" {
		in.NotifyURL = s.cfg.PublicBaseURL + PayoutNotifyPath
	}

	if err := validateWalletOperation(in.TransactionID, in.Amount, in.PhoneNumber, in.PaymentMethod, in.NotifyURL); err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		ID:         in.TransactionID,
		Type:       models.TransactionTypePayout,
		Amount:     in.Amount,
		Currency:   s.cfg.Currency,
		CustomerID: in.CustomerID,
		Status:     models.TransactionStatusInitiated,
		Details: models.OperationDetails{
			Flow:          models.FlowPayout,
			Reason:        in.Reason,
			NotifyURL:     in.NotifyURL,
			PhoneNumber:   in.PhoneNumber,
			PaymentMethod: in.PaymentMethod,
		},
	}
	if err := s.create(ctx, txn); err != nil {
		return nil, err
	}

	raw, err := s.gateway.SendToCustomer(ctx, processor.PayoutRequest{
		Amount:        in.Amount,
		ID:            in.TransactionID,
		Reason:        in.Reason,
		PhoneNumber:   in.PhoneNumber,
		PaymentMethod: in.PaymentMethod,
		NotifyURL:     in.NotifyURL,
	})
	if err != nil {
		s.logger.Warn("payout failed", "transaction_id", txn.ID, "error", err)
		return nil, processorError(err)
	}

	s.logger.Info("payout initiated", "transaction_id", txn.ID, "amount", txn.Amount.String())

	return &ProcessorResult{Transaction: txn, ProcessorResponse: raw}, nil
}

// GetTransaction retrieves a transaction by ID
func (s *PaymentService) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	txn, err := s.repo.FindByID(ctx, transactionID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, &ServiceError{
			Code:    ErrCodeTransactionNotFound,
			Message: "transaction not found",
		}
	}
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to load transaction",
			Err:     err,
		}
	}

	return txn, nil
}

// BindRedirect records the processor id reported when the customer lands back
// from the hosted page. An empty thirdPartyID only looks the transaction up.
func (s *PaymentService) BindRedirect(ctx context.Context, transactionID, thirdPartyID string) (*models.Transaction, error) {
	if thirdPartyID != "" {
		err := s.repo.BindThirdPartyID(ctx, transactionID, thirdPartyID)
		switch {
		case errors.Is(err, models.ErrNotFound):
			return nil, &ServiceError{
				Code:    ErrCodeTransactionNotFound,
				Message: "transaction not found",
			}
		case errors.Is(err, models.ErrThirdPartyIDConflict):
			s.logger.Error("redirect reported a different processor id",
				"transaction_id", transactionID,
				"third_party_id", thirdPartyID,
			)
			return nil, &ServiceError{
				Code:    ErrCodeThirdPartyIDConflict,
				Message: "a different processor transaction id is already recorded",
				Err:     err,
			}
		case err != nil:
			return nil, &ServiceError{
				Code:    ErrCodeInternalError,
				Message: "failed to record processor transaction id",
				Err:     err,
			}
		}
	}

	return s.GetTransaction(ctx, transactionID)
}

// create stores the INITIATED record before the processor is contacted
func (s *PaymentService) create(ctx context.Context, txn *models.Transaction) error {
	txn.CreatedAt = time.Now().UTC()

	err := s.repo.Create(ctx, txn)
	if errors.Is(err, models.ErrDuplicateTransaction) {
		return &ServiceError{
			Code:    ErrCodeDuplicateTransaction,
			Message: fmt.Sprintf("transaction %s already exists", txn.ID),
		}
	}
	if err != nil {
		return &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to create transaction",
			Err:     err,
		}
	}

	return nil
}

// bind records the processor id; the initiation already succeeded, so failures are only logged
func (s *PaymentService) bind(ctx context.Context, txn *models.Transaction, thirdPartyID string) {
	if thirdPartyID == "" {
		return
	}

	if err := s.repo.BindThirdPartyID(ctx, txn.ID, thirdPartyID); err != nil {
		s.logger.Error("failed to bind processor transaction id",
			"transaction_id", txn.ID,
			"third_party_id", thirdPartyID,
			"error", err,
		)
		return
	}
	txn.ThirdPartyID = thirdPartyID
}

func (s *PaymentService) landingURL(path, transactionID string) string {
	return s.cfg.PublicBaseURL + path + "?transactionId=" + url.QueryEscape(transactionID)
}

func validateHostedPayment(in HostedPaymentInput) error {
	if err := validateCommon(in.TransactionID, in.Amount); err != nil {
		return err
	}

	if in.PhoneNumber != "" {
		if err := ValidatePhoneNumber(in.PhoneNumber); err != nil {
			return &ServiceError{Code: ErrCodeInvalidRequest, Message: err.Error()}
		}
	}

	urls := []struct{ field, value string }{
		{"successRedirectUrl", in.SuccessRedirectURL},
		{"failureRedirectUrl", in.FailureRedirectURL},
		{"cancelRedirectUrl", in.CancelRedirectURL},
		{"notifyUrl", in.NotifyURL},
	}
	for _, u := range urls {
		if err := ValidateURL(u.field, u.value); err != nil {
			return &ServiceError{Code: ErrCodeInvalidRequest, Message: err.Error()}
		}
	}

	return nil
}

func validateWalletOperation(id string, amount decimal.Decimal, phone, method, notifyURL string) error {
	if err := validateCommon(id, amount); err != nil {
		return err
	}

	if err := ValidatePhoneNumber(phone); err != nil {
		return &ServiceError{Code: ErrCodeInvalidRequest, Message: err.Error()}
	}

	if err := ValidatePaymentMethod(method); err != nil {
		return &ServiceError{Code: ErrCodeInvalidRequest, Message: err.Error()}
	}

	if err := ValidateURL("notifyUrl", notifyURL); err != nil {
		return &ServiceError{Code: ErrCodeInvalidRequest, Message: err.Error()}
	}

	return nil
}

func validateCommon(id string, amount decimal.Decimal) error {
	if err := ValidateTransactionID(id); err != nil {
		return &ServiceError{Code: ErrCodeInvalidRequest, Message: err.Error()}
	}

	if err := ValidateAmount(amount); err != nil {
		return &ServiceError{Code: ErrCodeInvalidAmount, Message: err.Error()}
	}

	return nil
}

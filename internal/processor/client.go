// Package processor talks to the payment processor's gateway API.
package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/benx421/payment-gateway/merchant/internal/signer"
	"github.com/shopspring/decimal"
)

// Processor gateway base URLs
const (
	SandboxBaseURL    = "https://testnet.santimpay.com/api/v1/gateway"
	ProductionBaseURL = "https://services.santimpay.com/api/v1/gateway"
)

// Operation names used in errors and logs
const (
	OpInitiatePayment   = "initiate payment"
	OpDirectPayment     = "direct payment"
	OpPayoutTransfer    = "payout transfer"
	OpTransactionStatus = "fetch transaction status"
)

const maxResponseBytes = 1 << 20

// BaseURLFor returns the gateway URL of a processor environment
func BaseURLFor(env string) string {
	if strings.EqualFold(env, "production") {
		return ProductionBaseURL
	}
	return SandboxBaseURL
}

// Gateway is the set of processor operations
type Gateway interface {
	InitiateHostedPayment(ctx context.Context, req HostedPaymentRequest) (*HostedPayment, error)
	DirectPayment(ctx context.Context, req DirectPaymentRequest) (json.RawMessage, error)
	SendToCustomer(ctx context.Context, req PayoutRequest) (json.RawMessage, error)
	CheckTransactionStatus(ctx context.Context, id string) (json.RawMessage, error)
}

// Config holds the client transport settings
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// HostedPaymentRequest asks the processor for a checkout page
type HostedPaymentRequest struct {
	Amount             decimal.Decimal
	ID                 string
	Reason             string
	SuccessRedirectURL string
	FailureRedirectURL string
	CancelRedirectURL  string
	NotifyURL          string
	PhoneNumber        string
}

// HostedPayment is the checkout page the customer is redirected to.
// ProcessorTxnID is empty when the processor did not report one.
type HostedPayment struct {
	URL            string `json:"url"`
	ProcessorTxnID string `json:"txnId,omitempty"`
}

// DirectPaymentRequest charges a customer's phone-linked account without a redirect
type DirectPaymentRequest struct {
	Amount        decimal.Decimal
	ID            string
	Reason        string
	NotifyURL     string
	PhoneNumber   string
	PaymentMethod string
}

// PayoutRequest sends money to a customer
type PayoutRequest struct {
	Amount        decimal.Decimal
	ID            string
	Reason        string
	PhoneNumber   string
	PaymentMethod string
	NotifyURL     string
}

type initiatePaymentBody struct {
	ID                 string      `json:"id"`
	Amount             json.Number `json:"amount"`
	Reason             string      `json:"reason"`
	MerchantID         string      `json:"merchantId"`
	SignedToken        string      `json:"signedToken"`
	SuccessRedirectURL string      `json:"successRedirectUrl"`
	FailureRedirectURL string      `json:"failureRedirectUrl"`
	NotifyURL          string      `json:"notifyUrl"`
	CancelRedirectURL  string      `json:"cancelRedirectUrl"`
	PhoneNumber        string      `json:"phoneNumber,omitempty"`
}

type directPaymentBody struct {
	ID            string      `json:"id"`
	Amount        json.Number `json:"amount"`
	Reason        string      `json:"reason"`
	MerchantID    string      `json:"merchantId"`
	SignedToken   string      `json:"signedToken"`
	PhoneNumber   string      `json:"phoneNumber,omitempty"`
	PaymentMethod string      `json:"paymentMethod"`
	NotifyURL     string      `json:"notifyUrl"`
}

type payoutTransferBody struct {
	ID                    string      `json:"id"`
	ClientReference       string      `json:"clientReference"`
	Amount                json.Number `json:"amount"`
	Reason                string      `json:"reason"`
	MerchantID            string      `json:"merchantId"`
	SignedToken           string      `json:"signedToken"`
	ReceiverAccountNumber string      `json:"receiverAccountNumber"`
	NotifyURL             string      `json:"notifyUrl"`
	PaymentMethod         string      `json:"paymentMethod"`
}

type transactionStatusBody struct {
	ID          string `json:"id"`
	MerchantID  string `json:"merchantId"`
	SignedToken string `json:"signedToken"`
}

// Client signs and sends requests to the processor. It makes exactly one
// attempt per call; wrap it in a RetryingGateway to retry.
type Client struct {
	signer     *signer.Signer
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	timeout    time.Duration
}

// NewClient creates a processor client. A nil httpClient gets one bounded by cfg.Timeout.
func NewClient(cfg Config, s *signer.Signer, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if s == nil {
		return nil, errors.New("signer is required")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("processor base URL cannot be empty")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		signer:     s,
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		timeout:    cfg.Timeout,
	}, nil
}

// InitiateHostedPayment creates a hosted checkout and returns its URL
func (c *Client) InitiateHostedPayment(ctx context.Context, req HostedPaymentRequest) (*HostedPayment, error) {
	amount := wireAmount(req.Amount)

	token, err := c.signer.Sign(signer.Claims{
		"amount":        amount,
		"paymentReason": req.Reason,
	})
	if err != nil {
		return nil, err
	}

	raw, err := c.post(ctx, OpInitiatePayment, "/initiate-payment", initiatePaymentBody{
		ID:                 req.ID,
		Amount:             amount,
		Reason:             req.Reason,
		MerchantID:         c.signer.MerchantID(),
		SignedToken:        token,
		SuccessRedirectURL: req.SuccessRedirectURL,
		FailureRedirectURL: req.FailureRedirectURL,
		NotifyURL:          req.NotifyURL,
		CancelRedirectURL:  req.CancelRedirectURL,
		PhoneNumber:        req.PhoneNumber,
	})
	if err != nil {
		return nil, err
	}

	var payment HostedPayment
	if err := json.Unmarshal(raw, &payment); err != nil || payment.URL == "" {
		return nil, &RejectionError{Op: OpInitiatePayment, StatusCode: http.StatusOK, Body: rejectionBody(raw)}
	}

	return &payment, nil
}

// DirectPayment charges the customer's account and returns the processor result verbatim
func (c *Client) DirectPayment(ctx context.Context, req DirectPaymentRequest) (json.RawMessage, error) {
	amount := wireAmount(req.Amount)

	token, err := c.signer.Sign(signer.Claims{
		"amount":        amount,
		"paymentReason": req.Reason,
		"paymentMethod": req.PaymentMethod,
		"phoneNumber":   req.PhoneNumber,
	})
	if err != nil {
		return nil, err
	}

	return c.post(ctx, OpDirectPayment, "/direct-payment", directPaymentBody{
		ID:            req.ID,
		Amount:        amount,
		Reason:        req.Reason,
		MerchantID:    c.signer.MerchantID(),
		SignedToken:   token,
		PhoneNumber:   req.PhoneNumber,
		PaymentMethod: req.PaymentMethod,
		NotifyURL:     req.NotifyURL,
	})
}

// SendToCustomer transfers money to the customer's account. The transaction id is
// sent as both id and clientReference.
func (c *Client) SendToCustomer(ctx context.Context, req PayoutRequest) (json.RawMessage, error) {
	amount := wireAmount(req.Amount)

	token, err := c.signer.Sign(signer.Claims{
		"amount":        amount,
		"paymentReason": req.Reason,
		"paymentMethod": req.PaymentMethod,
		"phoneNumber":   req.PhoneNumber,
	})
	if err != nil {
		return nil, err
	}

	return c.post(ctx, OpPayoutTransfer, "/payout-transfer", payoutTransferBody{
		ID:                    req.ID,
		ClientReference:       req.ID,
		Amount:                amount,
		Reason:                req.Reason,
		MerchantID:            c.signer.MerchantID(),
		SignedToken:           token,
		ReceiverAccountNumber: req.PhoneNumber,
		NotifyURL:             req.NotifyURL,
		PaymentMethod:         req.PaymentMethod,
	})
}

// CheckTransactionStatus asks the processor for the authoritative status of a transaction
func (c *Client) CheckTransactionStatus(ctx context.Context, id string) (json.RawMessage, error) {
	token, err := c.signer.SignAs(signer.Claims{"id": id}, signer.ClaimMerID)
	if err != nil {
		return nil, err
	}

	return c.post(ctx, OpTransactionStatus, "/fetch-transaction-status", transactionStatusBody{
		ID:          id,
		MerchantID:  c.signer.MerchantID(),
		SignedToken: token,
	})
}

func (c *Client) post(ctx context.Context, op, path string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", op, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("processor request failed",
			"operation", op,
			"duration", time.Since(start),
			"error", err,
		)
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	c.logger.Debug("processor responded",
		"operation", op,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, &RejectionError{Op: op, StatusCode: resp.StatusCode, Body: rejectionBody(respBody)}
	}

	if !json.Valid(respBody) {
		return nil, &RejectionError{Op: op, StatusCode: resp.StatusCode, Body: rejectionBody(respBody)}
	}

	return json.RawMessage(respBody), nil
}

// ProcessorTxnID extracts the processor-assigned transaction id from a response, if any
func ProcessorTxnID(raw json.RawMessage) string {
	var body struct {
		TxnID string `json:"txnId"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.TxnID
}

func wireAmount(amount decimal.Decimal) json.Number {
	return json.Number(amount.String())
}

package handlers

import (
	"net/http"

	"github.com/benx421/payment-gateway/merchant/internal/api"
	"github.com/benx421/payment-gateway/merchant/internal/service"
)

// CreateHostedPayment handles POST /api/v1/payments
func (h *Handler) CreateHostedPayment(w http.ResponseWriter, r *http.Request) {
	var body api.HostedPaymentRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, api.ErrorCodeInvalidRequest, err.Error())
		return
	}

	result, err := h.payments.InitiateHostedPayment(r.Context(), service.HostedPaymentInput{
		Amount:             body.Amount,
		TransactionID:      body.TransactionId,
		CustomerID:         body.CustomerId,
		Reason:             body.Reason,
		PhoneNumber:        body.PhoneNumber,
		SuccessRedirectURL: body.SuccessRedirectUrl,
		FailureRedirectURL: body.FailureRedirectUrl,
		CancelRedirectURL:  body.CancelRedirectUrl,
		NotifyURL:          body.NotifyUrl,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, api.HostedPaymentResponse{
		Transaction: result.Transaction,
		PaymentUrl:  result.PaymentURL,
	})
}

// CreateDirectPayment handles POST /api/v1/payments/direct
func (h *Handler) CreateDirectPayment(w http.ResponseWriter, r *http.Request) {
	var body api.WalletOperationRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, api.ErrorCodeInvalidRequest, err.Error())
		return
	}

	result, err := h.payments.InitiateDirectPayment(r.Context(), service.DirectPaymentInput(walletInput(body)))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, api.ProcessorResponse{
		Transaction:       result.Transaction,
		ProcessorResponse: result.ProcessorResponse,
	})
}

// CreatePayout handles POST /api/v1/payouts
func (h *Handler) CreatePayout(w http.ResponseWriter, r *http.Request) {
	var body api.WalletOperationRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, api.ErrorCodeInvalidRequest, err.Error())
		return
	}

	result, err := h.payments.InitiatePayout(r.Context(), walletInput(body))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, api.ProcessorResponse{
		Transaction:       result.Transaction,
		ProcessorResponse: result.ProcessorResponse,
	})
}

func walletInput(body api.WalletOperationRequest) service.PayoutInput {
	return service.PayoutInput{
		Amount:        body.Amount,
		TransactionID: body.TransactionId,
		CustomerID:    body.CustomerId,
		Reason:        body.Reason,
		PhoneNumber:   body.PhoneNumber,
		PaymentMethod: body.PaymentMethod,
		NotifyURL:     body.NotifyUrl,
	}
}

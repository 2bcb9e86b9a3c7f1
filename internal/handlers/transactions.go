package handlers

import (
	"net/http"

	"github.com/benx421/payment-gateway/merchant/internal/api"
)

// GetTransaction handles GET /api/v1/transactions/{transactionId}
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID, err := transactionIDParam(r)
	if err != nil {
		writeError(w, api.ErrorCodeInvalidRequest, err.Error())
		return
	}

	txn, err := h.payments.GetTransaction(r.Context(), transactionID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, txn)
}

// GetProcessorStatus handles GET /api/v1/transactions/{transactionId}/status.
// The processor answer is passed through untouched; the local record is not changed.
func (h *Handler) GetProcessorStatus(w http.ResponseWriter, r *http.Request) {
	transactionID, err := transactionIDParam(r)
	if err != nil {
		writeError(w, api.ErrorCodeInvalidRequest, err.Error())
		return
	}

	raw, err := h.statusChecker.CheckStatus(r.Context(), transactionID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw) //nolint:errcheck // Nothing useful to do if write fails
}

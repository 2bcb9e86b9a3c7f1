package handlers

import (
	"net/http"

	"github.com/benx421/payment-gateway/merchant/internal/api"
)

// PaymentLanding returns the handler for one checkout landing page
// (GET /payment/success, /payment/failed, /payment/canceled).
// The processor appends its own transaction id as txnId; it is bound to the
// local record named by transactionId when the record has none yet.
func (h *Handler) PaymentLanding(outcome api.PaymentOutcome) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		transactionID := query.Get("transactionId")
		if transactionID == "" {
			writeError(w, api.ErrorCodeInvalidRequest, "transactionId query parameter is required")
			return
		}

		txn, err := h.payments.BindRedirect(r.Context(), transactionID, query.Get("txnId"))
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}

		h.logger.Info("customer returned from checkout",
			"transaction_id", txn.ID,
			"outcome", outcome,
			"status", txn.Status,
		)

		writeJSON(w, http.StatusOK, api.LandingResponse{
			Transaction: txn,
			Outcome:     outcome,
			PaymentVia:  query.Get("paymentVia"),
		})
	}
}

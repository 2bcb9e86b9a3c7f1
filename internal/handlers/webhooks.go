package handlers

import (
	"context"
	"net/http"

	"github.com/benx421/payment-gateway/merchant/internal/api"
	"github.com/benx421/payment-gateway/merchant/internal/service"
)

// ReceivePaymentNotification handles POST /api/v1/webhooks/payments
func (h *Handler) ReceivePaymentNotification(w http.ResponseWriter, r *http.Request) {
	h.receiveNotification(w, r, h.reconciler.HandleCollectionNotification)
}

// ReceivePayoutNotification handles POST /api/v1/webhooks/payouts
func (h *Handler) ReceivePayoutNotification(w http.ResponseWriter, r *http.Request) {
	h.receiveNotification(w, r, h.reconciler.HandlePayoutNotification)
}

func (h *Handler) receiveNotification(
	w http.ResponseWriter,
	r *http.Request,
	handle func(context.Context, []byte) (*service.Acknowledgement, error),
) {
	raw, err := readBody(w, r)
	if err != nil {
		writeError(w, api.ErrorCodeMalformedNotification, err.Error())
		return
	}

	ack, err := handle(r.Context(), raw)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ack)
}

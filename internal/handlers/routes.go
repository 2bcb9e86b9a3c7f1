package handlers

import (
	"log/slog"
	"net/http"

	"github.com/benx421/payment-gateway/merchant/internal/api"
	"github.com/benx421/payment-gateway/merchant/internal/middleware"
	"github.com/benx421/payment-gateway/merchant/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and configures the HTTP router with all routes and middleware.
// Caller-facing routes are OpenAPI-validated and idempotent; processor
// notifications skip both so that every delivery reaches reconciliation.
func NewRouter(
	h *Handler,
	idempotencyRepo middleware.IdempotencyRepository,
	logger *slog.Logger,
) (http.Handler, error) {
	doc, err := api.GetSwagger()
	if err != nil {
		return nil, err
	}
	validate, err := middleware.OpenAPIValidator(doc, logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)

	api.RegisterDocsRoutes(r)
	r.Get("/health", h.GetHealth)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Idempotency(idempotencyRepo, logger))
		r.Use(validate)

		r.Post("/api/v1/payments", h.CreateHostedPayment)
		r.Post("/api/v1/payments/direct", h.CreateDirectPayment)
		r.Post("/api/v1/payouts", h.CreatePayout)
		r.Get("/api/v1/transactions/{transactionId}", h.GetTransaction)
		r.Get("/api/v1/transactions/{transactionId}/status", h.GetProcessorStatus)
	})

	r.Post(service.PaymentNotifyPath, h.ReceivePaymentNotification)
	r.Post(service.PayoutNotifyPath, h.ReceivePayoutNotification)

	r.Get(service.SuccessLandingPath, h.PaymentLanding(api.PaymentOutcomeSuccess))
	r.Get(service.FailureLandingPath, h.PaymentLanding(api.PaymentOutcomeFailed))
	r.Get(service.CancelLandingPath, h.PaymentLanding(api.PaymentOutcomeCanceled))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, api.ErrorCodeNotFound, "route not found")
	})

	return r, nil
}

// Package handlers implements HTTP handlers for the merchant gateway API.
package handlers

import (
	"log/slog"

	"github.com/benx421/payment-gateway/merchant/internal/service"
)

// Handler serves every route of the merchant gateway API
type Handler struct {
	payments      service.Payments
	reconciler    service.Reconciler
	statusChecker service.StatusChecker
	healthChecker service.HealthChecker
	logger        *slog.Logger
}

// NewHandler creates a new Handler with injected service dependencies.
func NewHandler(
	payments service.Payments,
	reconciler service.Reconciler,
	statusChecker service.StatusChecker,
	healthChecker service.HealthChecker,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		payments:      payments,
		reconciler:    reconciler,
		statusChecker: statusChecker,
		healthChecker: healthChecker,
		logger:        logger,
	}
}

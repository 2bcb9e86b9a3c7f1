package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/benx421/payment-gateway/merchant/internal/api"
	"github.com/benx421/payment-gateway/merchant/internal/service"
)

// LambdaWebhookHandler serves processor notifications delivered through
// API Gateway proxy events, with the same acknowledgements and error
// bodies as the HTTP webhook routes.
type LambdaWebhookHandler struct {
	reconciler service.Reconciler
	logger     *slog.Logger
}

// NewLambdaWebhookHandler creates a LambdaWebhookHandler.
func NewLambdaWebhookHandler(reconciler service.Reconciler, logger *slog.Logger) *LambdaWebhookHandler {
	return &LambdaWebhookHandler{
		reconciler: reconciler,
		logger:     logger,
	}
}

// Handle is the lambda.Start entry point.
func (h *LambdaWebhookHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if req.HTTPMethod != http.MethodPost {
		return lambdaError(api.ErrorCodeNotFound, "route not found"), nil
	}

	var handle func(context.Context, []byte) (*service.Acknowledgement, error)
	switch strings.TrimSuffix(req.Path, "/") {
	case service.PaymentNotifyPath:
		handle = h.reconciler.HandleCollectionNotification
	case service.PayoutNotifyPath:
		handle = h.reconciler.HandlePayoutNotification
	default:
		return lambdaError(api.ErrorCodeNotFound, "route not found"), nil
	}

	raw := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return lambdaError(api.ErrorCodeMalformedNotification, "notification body is not valid base64"), nil
		}
		raw = decoded
	}

	ack, err := handle(ctx, raw)
	if err != nil {
		return h.serviceError(req.Path, err), nil
	}

	return lambdaJSON(http.StatusOK, ack), nil
}

func (h *LambdaWebhookHandler) serviceError(path string, err error) events.APIGatewayProxyResponse {
	svcErr := extractServiceError(err)
	if svcErr == nil {
		h.logger.Error("unexpected error", "path", path, "error", err)
		return lambdaError(api.ErrorCodeInternalError, "internal error")
	}

	status, resp := errorResponse(svcErr)
	if status == http.StatusInternalServerError {
		h.logger.Error("notification failed", "path", path, "code", svcErr.Code, "error", err)
	}
	return lambdaJSON(status, resp)
}

func lambdaError(code api.ErrorCode, message string) events.APIGatewayProxyResponse {
	return lambdaJSON(httpStatusForCode(code), api.Error{Error: code, Message: message})
}

func lambdaJSON(status int, body any) events.APIGatewayProxyResponse {
	encoded, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		encoded = []byte(`{"error":"internal_error","message":"failed to encode response"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(encoded),
	}
}

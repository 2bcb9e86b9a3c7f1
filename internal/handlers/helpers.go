package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/benx421/payment-gateway/merchant/internal/api"
	"github.com/benx421/payment-gateway/merchant/internal/processor"
	"github.com/benx421/payment-gateway/merchant/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// maxBodyBytes bounds request bodies, including processor notifications
const maxBodyBytes = 1 << 20

func mapServiceErrorToCode(code string) api.ErrorCode {
	switch code {
	case service.ErrCodeInvalidRequest:
		return api.ErrorCodeInvalidRequest
	case service.ErrCodeInvalidAmount:
		return api.ErrorCodeInvalidAmount
	case service.ErrCodeDuplicateTransaction:
		return api.ErrorCodeDuplicateTransaction
	case service.ErrCodeTransactionNotFound:
		return api.ErrorCodeTransactionNotFound
	case service.ErrCodeThirdPartyIDConflict:
		return api.ErrorCodeThirdPartyIDConflict
	case service.ErrCodeMalformedNotification:
		return api.ErrorCodeMalformedNotification
	case service.ErrCodeProcessorRejected:
		return api.ErrorCodeProcessorRejected
	case service.ErrCodeProcessorUnavailable:
		return api.ErrorCodeProcessorUnavailable
	case service.ErrCodeSigningFailed:
		return api.ErrorCodeSigningFailed
	default:
		return api.ErrorCodeInternalError
	}
}

func httpStatusForCode(code api.ErrorCode) int {
	switch code {
	case api.ErrorCodeInvalidRequest, api.ErrorCodeInvalidAmount, api.ErrorCodeMalformedNotification:
		return http.StatusBadRequest
	case api.ErrorCodeDuplicateTransaction, api.ErrorCodeThirdPartyIDConflict:
		return http.StatusConflict
	case api.ErrorCodeTransactionNotFound, api.ErrorCodeNotFound:
		return http.StatusNotFound
	case api.ErrorCodeProcessorRejected:
		return http.StatusBadGateway
	case api.ErrorCodeProcessorUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func extractServiceError(err error) *service.ServiceError {
	var svcErr *service.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return nil
}

// errorResponse maps a service failure onto the error body and its HTTP status.
// A processor rejection carries the processor's own body in details.
func errorResponse(svcErr *service.ServiceError) (int, api.Error) {
	code := mapServiceErrorToCode(svcErr.Code)
	resp := api.Error{
		Error:   code,
		Message: svcErr.Message,
	}
	var rejection *processor.RejectionError
	if errors.As(svcErr, &rejection) {
		resp.Details = rejection.Body
	}
	return httpStatusForCode(code), resp
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	svcErr := extractServiceError(err)
	if svcErr == nil {
		h.logger.Error("unexpected error", "path", r.URL.Path, "error", err)
		writeError(w, api.ErrorCodeInternalError, "internal error")
		return
	}

	status, resp := errorResponse(svcErr)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "code", svcErr.Code, "error", err)
	}
	writeJSON(w, status, resp)
}

func writeError(w http.ResponseWriter, code api.ErrorCode, message string) {
	writeJSON(w, httpStatusForCode(code), api.Error{
		Error:   code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Nothing useful to do if write fails
	json.NewEncoder(w).Encode(body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return body, nil
}

func transactionIDParam(r *http.Request) (string, error) {
	var transactionID string
	err := runtime.BindStyledParameterWithOptions("simple", "transactionId", chi.URLParam(r, "transactionId"), &transactionID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", fmt.Errorf("invalid format for parameter transactionId: %w", err)
	}
	return transactionID, nil
}

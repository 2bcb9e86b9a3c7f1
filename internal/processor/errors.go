package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// TransportError means the request never produced a processor response:
// connection failures, timeouts and unreadable bodies.
type TransportError struct {
	Err error
	Op  string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request ran out of time
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// RejectionError is a processor response other than success. Body holds the
// processor's error payload verbatim and is nil when the response had none.
type RejectionError struct {
	Op         string
	Body       json.RawMessage
	StatusCode int
}

func (e *RejectionError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("%s failed", e.Op)
	}
	return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.StatusCode, string(e.Body))
}

// Retryable reports whether the processor asked us to come back later
func (e *RejectionError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// IsRetryable reports whether an operation may be attempted again with a fresh token.
// Signing failures and definitive rejections are never retried.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}

	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return rejection.Retryable()
	}

	return false
}

// rejectionBody keeps a processor error payload as valid JSON. Non-JSON bodies
// are wrapped in a JSON string so they can be passed back to callers unchanged.
func rejectionBody(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return json.RawMessage(raw)
	}
	encoded, err := json.Marshal(string(raw))
	if err != nil {
		return nil
	}
	return encoded
}

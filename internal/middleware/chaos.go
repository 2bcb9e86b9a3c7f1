package middleware

import (
	"crypto/rand"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/benx421/payment-gateway/merchant/internal/config"
)

// ErrInjectedFailure is returned by FailureInjectingTransport in place of a real round trip.
var ErrInjectedFailure = errors.New("injected processor failure")

// FailureInjectingTransport wraps the outbound processor transport with random
// latency and connection failures, so sandbox runs exercise the retry and
// processor_unavailable paths without a misbehaving processor.
type FailureInjectingTransport struct {
	Next         http.RoundTripper
	Logger       *slog.Logger
	FailureRate  float64
	MinLatencyMS int
	MaxLatencyMS int
}

// NewFailureInjectingTransport returns next unchanged unless the processor config
// targets the sandbox and asks for latency or failures.
func NewFailureInjectingTransport(next http.RoundTripper, cfg *config.ProcessorConfig, logger *slog.Logger) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if cfg.Environment != config.EnvironmentSandbox {
		return next
	}
	if cfg.FailureRate <= 0 && cfg.MinLatencyMS <= 0 && cfg.MaxLatencyMS <= 0 {
		return next
	}
	return &FailureInjectingTransport{
		Next:         next,
		Logger:       logger,
		FailureRate:  cfg.FailureRate,
		MinLatencyMS: cfg.MinLatencyMS,
		MaxLatencyMS: cfg.MaxLatencyMS,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *FailureInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if delay := latency(t.MinLatencyMS, t.MaxLatencyMS); delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}

	if shouldInjectFailure(t.FailureRate) {
		if t.Logger != nil {
			t.Logger.Debug("injecting processor failure",
				"path", req.URL.Path,
				"method", req.Method,
			)
		}
		return nil, ErrInjectedFailure
	}

	return t.Next.RoundTrip(req)
}

func latency(minMS, maxMS int) time.Duration {
	if minMS <= 0 && maxMS <= 0 {
		return 0
	}

	rangeMS := maxMS - minMS
	if rangeMS <= 0 {
		return time.Duration(minMS) * time.Millisecond
	}

	randomOffset, err := rand.Int(rand.Reader, big.NewInt(int64(rangeMS)))
	if err != nil {
		return time.Duration(minMS) * time.Millisecond
	}

	return time.Duration(minMS+int(randomOffset.Int64())) * time.Millisecond
}

func shouldInjectFailure(failureRate float64) bool {
	if failureRate <= 0 {
		return false
	}
	if failureRate >= 1 {
		return true
	}

	const precision = 1000000
	randomNum, err := rand.Int(rand.Reader, big.NewInt(precision))
	if err != nil {
		return false
	}

	threshold := int64(failureRate * precision)
	return randomNum.Int64() < threshold
}

package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// RetryPolicy configures exponential backoff with full jitter
type RetryPolicy struct {
	MaxAttempts int
	BaseWait    time.Duration
	MaxWait     time.Duration
}

// RetryingGateway retries transient processor failures. Every attempt goes back
// through the wrapped gateway, so each one carries a freshly signed token.
type RetryingGateway struct {
	next   Gateway
	logger *slog.Logger
	policy RetryPolicy
}

var (
	_ Gateway = (*Client)(nil)
	_ Gateway = (*RetryingGateway)(nil)
)

// NewRetryingGateway wraps a gateway with a retry policy
func NewRetryingGateway(next Gateway, policy RetryPolicy, logger *slog.Logger) *RetryingGateway {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.MaxWait < policy.BaseWait {
		policy.MaxWait = policy.BaseWait
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryingGateway{next: next, policy: policy, logger: logger}
}

// InitiateHostedPayment retries the wrapped gateway's InitiateHostedPayment
func (g *RetryingGateway) InitiateHostedPayment(ctx context.Context, req HostedPaymentRequest) (*HostedPayment, error) {
	return withRetry(ctx, g, OpInitiatePayment, func(ctx context.Context) (*HostedPayment, error) {
		return g.next.InitiateHostedPayment(ctx, req)
	})
}

// DirectPayment retries the wrapped gateway's DirectPayment
func (g *RetryingGateway) DirectPayment(ctx context.Context, req DirectPaymentRequest) (json.RawMessage, error) {
	return withRetry(ctx, g, OpDirectPayment, func(ctx context.Context) (json.RawMessage, error) {
		return g.next.DirectPayment(ctx, req)
	})
}

// SendToCustomer retries the wrapped gateway's SendToCustomer
func (g *RetryingGateway) SendToCustomer(ctx context.Context, req PayoutRequest) (json.RawMessage, error) {
	return withRetry(ctx, g, OpPayoutTransfer, func(ctx context.Context) (json.RawMessage, error) {
		return g.next.SendToCustomer(ctx, req)
	})
}

// CheckTransactionStatus retries the wrapped gateway's CheckTransactionStatus
func (g *RetryingGateway) CheckTransactionStatus(ctx context.Context, id string) (json.RawMessage, error) {
	return withRetry(ctx, g, OpTransactionStatus, func(ctx context.Context) (json.RawMessage, error) {
		return g.next.CheckTransactionStatus(ctx, id)
	})
}

func withRetry[T any](ctx context.Context, g *RetryingGateway, op string, call func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= g.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := g.backoff(attempt - 1)
			g.logger.Warn("retrying processor request",
				"operation", op,
				"attempt", attempt,
				"delay", delay,
				"error", lastErr,
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return zero, fmt.Errorf("%s: retry aborted: %w", op, ctx.Err())
			}
		}

		result, err := call(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsRetryable(err) || ctx.Err() != nil {
			return zero, err
		}
	}

	return zero, lastErr
}

// backoff returns a random delay in [0, min(MaxWait, BaseWait*2^(retry-1))]
func (g *RetryingGateway) backoff(retry int) time.Duration {
	ceiling := g.policy.BaseWait
	for i := 1; i < retry && ceiling < g.policy.MaxWait; i++ {
		ceiling *= 2
	}
	if ceiling > g.policy.MaxWait {
		ceiling = g.policy.MaxWait
	}
	if ceiling <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(ceiling) + 1))
}

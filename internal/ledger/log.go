package ledger

import (
	"context"
	"log/slog"
)

// LogLedger writes entries to the structured log. Used when no queue is configured.
type LogLedger struct {
	logger *slog.Logger
}

// NewLogLedger creates a LogLedger
func NewLogLedger(logger *slog.Logger) *LogLedger {
	return &LogLedger{logger: logger}
}

var _ Ledger = (*LogLedger)(nil)

// Record logs the entry at info level
func (l *LogLedger) Record(ctx context.Context, entry Entry) error {
	l.logger.InfoContext(ctx, "ledger entry recorded",
		"entry_id", entry.ID,
		"transaction_id", entry.TransactionID,
		"account_id", entry.AccountID,
		"direction", entry.Direction,
		"amount", entry.Amount.String(),
		"currency", entry.Currency,
	)
	return nil
}

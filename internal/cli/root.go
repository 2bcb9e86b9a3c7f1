// Package cli implements gatewayctl, the operator command line for the merchant gateway.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/benx421/payment-gateway/merchant/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the gatewayctl command tree
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "gatewayctl",
		Short: "Operate the merchant payment gateway",
		Long: `gatewayctl manages signing keys, inspects processor tokens, starts payments
and payouts against the configured processor, and maintains the local stores.

Configuration is read from the environment (and .env), the same as the gateway server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().Bool("verbose", false, "Log at debug level to stderr")

	root.AddCommand(newKeygenCommand())
	root.AddCommand(newTokenCommand())
	root.AddCommand(newInitiateCommand())
	root.AddCommand(newDirectCommand())
	root.AddCommand(newPayoutCommand())
	root.AddCommand(newStatusCommand())
	root.AddCommand(newIdempotencyCommand())

	return root
}

// loadConfig reads the environment configuration and a logger writing to stderr
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	return cfg, logger, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

package cli

import (
	"fmt"
	"time"

	"github.com/benx421/payment-gateway/merchant/internal/app"
	"github.com/benx421/payment-gateway/merchant/internal/service"
	"github.com/spf13/cobra"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <transaction-id>",
		Short: "Ask the processor for a transaction's status",
		Long: `Ask the processor for a transaction's status and print its answer verbatim.
The local store is not read or changed; only notifications move a transaction.`,
		Args: cobra.ExactArgs(1),
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	gateway, err := app.NewGateway(&cfg.Processor, logger)
	if err != nil {
		return err
	}

	raw, err := service.NewStatusPoller(gateway, logger).CheckStatus(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), raw)
}

func newIdempotencyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "idempotency",
		Short: "Maintain cached idempotent responses",
	}

	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete cached responses older than a cutoff",
		Args:  cobra.NoArgs,
		RunE:  runIdempotencyPrune,
	}
	prune.Flags().Duration("older-than", 24*time.Hour, "Delete keys created before now minus this duration")

	cmd.AddCommand(prune)
	return cmd
}

func runIdempotencyPrune(cmd *cobra.Command, _ []string) error {
	olderThan, _ := cmd.Flags().GetDuration("older-than")
	if olderThan <= 0 {
		return fmt.Errorf("--older-than must be positive, got %s", olderThan)
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	stores, err := app.NewStores(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	//nolint:errcheck // Best effort on exit
	defer stores.Close()

	cutoff := time.Now().Add(-olderThan)
	deleted, err := stores.Idempotency.DeleteOlderThan(cmd.Context(), cutoff)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d idempotency keys created before %s\n", deleted, cutoff.UTC().Format(time.RFC3339))
	return nil
}

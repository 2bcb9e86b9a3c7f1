package cli

import (
	"fmt"

	"github.com/benx421/payment-gateway/merchant/internal/api"
	"github.com/benx421/payment-gateway/merchant/internal/app"
	"github.com/benx421/payment-gateway/merchant/internal/service"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newInitiateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "initiate",
		Short: "Start a hosted checkout and print the payment page URL",
		Example: `  gatewayctl initiate --amount 100 --reason "Order 42"
  gatewayctl initiate --amount 250.50 --reason "Order 43" --id txn_order_43 --phone +251911000000`,
		Args: cobra.NoArgs,
		RunE: runInitiate,
	}
	addPaymentFlags(cmd.Flags())
	cmd.Flags().String("success-url", "", "Override the success redirect")
	cmd.Flags().String("failure-url", "", "Override the failure redirect")
	cmd.Flags().String("cancel-url", "", "Override the cancel redirect")
	return cmd
}

func newDirectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "direct",
		Short: "Charge a customer's wallet directly",
		Example: `  gatewayctl direct --amount 100 --reason "Order 42" --phone +251911000000 --method Telebirr`,
		Args:    cobra.NoArgs,
		RunE:    runDirect,
	}
	addPaymentFlags(cmd.Flags())
	cmd.Flags().String("method", "", "Wallet payment method, e.g. Telebirr (required)")
	//nolint:errcheck // The flags are defined above
	cmd.MarkFlagRequired("phone")
	//nolint:errcheck // The flags are defined above
	cmd.MarkFlagRequired("method")
	return cmd
}

func newPayoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payout",
		Short: "Send money to a customer's wallet",
		Example: `  gatewayctl payout --amount 75 --reason "Refund order 42" --phone +251911000000 --method Telebirr`,
		Args:    cobra.NoArgs,
		RunE:    runPayout,
	}
	addPaymentFlags(cmd.Flags())
	cmd.Flags().String("method", "", "Wallet payment method, e.g. Telebirr (required)")
	//nolint:errcheck // The flags are defined above
	cmd.MarkFlagRequired("phone")
	//nolint:errcheck // The flags are defined above
	cmd.MarkFlagRequired("method")
	return cmd
}

func addPaymentFlags(flags *pflag.FlagSet) {
	flags.String("amount", "", "Amount in the configured currency (required)")
	flags.String("reason", "", "Description shown to the customer (required)")
	flags.String("id", "", "Merchant transaction id; generated when empty")
	flags.String("customer", "", "Merchant customer id")
	flags.String("phone", "", "Customer phone number")
	flags.String("notify-url", "", "Override the notification callback")
}

// paymentFlags holds the flags shared by every money movement command
type paymentFlags struct {
	amount    decimal.Decimal
	reason    string
	id        string
	customer  string
	phone     string
	notifyURL string
}

func readPaymentFlags(cmd *cobra.Command) (*paymentFlags, error) {
	rawAmount, _ := cmd.Flags().GetString("amount")
	if rawAmount == "" {
		return nil, fmt.Errorf("--amount is required")
	}
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid --amount %q: %w", rawAmount, err)
	}

	reason, _ := cmd.Flags().GetString("reason")
	if reason == "" {
		return nil, fmt.Errorf("--reason is required")
	}

	f := &paymentFlags{amount: amount, reason: reason}
	f.id, _ = cmd.Flags().GetString("id")
	f.customer, _ = cmd.Flags().GetString("customer")
	f.phone, _ = cmd.Flags().GetString("phone")
	f.notifyURL, _ = cmd.Flags().GetString("notify-url")
	return f, nil
}

func runInitiate(cmd *cobra.Command, _ []string) error {
	f, err := readPaymentFlags(cmd)
	if err != nil {
		return err
	}
	in := service.HostedPaymentInput{
		Amount:        f.amount,
		TransactionID: f.id,
		CustomerID:    f.customer,
		Reason:        f.reason,
		PhoneNumber:   f.phone,
		NotifyURL:     f.notifyURL,
	}
	in.SuccessRedirectURL, _ = cmd.Flags().GetString("success-url")
	in.FailureRedirectURL, _ = cmd.Flags().GetString("failure-url")
	in.CancelRedirectURL, _ = cmd.Flags().GetString("cancel-url")

	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	//nolint:errcheck // Best effort on exit
	defer a.Close()

	result, err := a.Payments.InitiateHostedPayment(cmd.Context(), in)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), api.HostedPaymentResponse{
		Transaction: result.Transaction,
		PaymentUrl:  result.PaymentURL,
	})
}

func runDirect(cmd *cobra.Command, _ []string) error {
	in, err := readWalletInput(cmd)
	if err != nil {
		return err
	}

	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	//nolint:errcheck // Best effort on exit
	defer a.Close()

	result, err := a.Payments.InitiateDirectPayment(cmd.Context(), service.DirectPaymentInput(*in))
	if err != nil {
		return err
	}
	return printProcessorResult(cmd, result)
}

func runPayout(cmd *cobra.Command, _ []string) error {
	in, err := readWalletInput(cmd)
	if err != nil {
		return err
	}

	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	//nolint:errcheck // Best effort on exit
	defer a.Close()

	result, err := a.Payments.InitiatePayout(cmd.Context(), *in)
	if err != nil {
		return err
	}
	return printProcessorResult(cmd, result)
}

func readWalletInput(cmd *cobra.Command) (*service.PayoutInput, error) {
	f, err := readPaymentFlags(cmd)
	if err != nil {
		return nil, err
	}
	method, _ := cmd.Flags().GetString("method")
	return &service.PayoutInput{
		Amount:        f.amount,
		TransactionID: f.id,
		CustomerID:    f.customer,
		Reason:        f.reason,
		PhoneNumber:   f.phone,
		PaymentMethod: method,
		NotifyURL:     f.notifyURL,
	}, nil
}

func printProcessorResult(cmd *cobra.Command, result *service.ProcessorResult) error {
	return printJSON(cmd.OutOrStdout(), api.ProcessorResponse{
		Transaction:       result.Transaction,
		ProcessorResponse: result.ProcessorResponse,
	})
}

func buildApp(cmd *cobra.Command) (*app.App, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.Build(cmd.Context(), cfg, logger)
}

package cli

import (
	"fmt"
	"os"

	"github.com/benx421/payment-gateway/merchant/internal/signer"
	"github.com/spf13/cobra"
)

func newKeygenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a P-256 key pair for signing processor requests",
		Long: `Generate a P-256 key pair. The private key goes into PROCESSOR_PRIVATE_KEY
(or the file named by PROCESSOR_PRIVATE_KEY_FILE); the public key is uploaded
to the processor dashboard.`,
		Args: cobra.NoArgs,
		RunE: runKeygen,
	}
	cmd.Flags().String("private-out", "", "Write the private key to this file instead of stdout")
	return cmd
}

func runKeygen(cmd *cobra.Command, _ []string) error {
	key, err := signer.GenerateKey()
	if err != nil {
		return err
	}
	privatePEM, err := signer.EncodePrivateKey(key)
	if err != nil {
		return err
	}
	publicPEM, err := signer.EncodePublicKey(&key.PublicKey)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	privateOut, _ := cmd.Flags().GetString("private-out")
	if privateOut != "" {
		if err := os.WriteFile(privateOut, []byte(privatePEM), 0o600); err != nil {
			return fmt.Errorf("failed to write private key: %w", err)
		}
		fmt.Fprintf(out, "private key written to %s\n\n", privateOut)
	} else {
		fmt.Fprint(out, privatePEM)
		fmt.Fprintln(out)
	}

	fmt.Fprint(out, publicPEM)
	return nil
}

func newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect processor request tokens",
	}

	verify := &cobra.Command{
		Use:   "verify <token>",
		Short: "Verify an ES256 token against a public key and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE:  runTokenVerify,
	}
	verify.Flags().String("public-key-file", "", "PEM encoded public key (required)")
	//nolint:errcheck // The flag is defined just above
	verify.MarkFlagRequired("public-key-file")

	cmd.AddCommand(verify)
	return cmd
}

func runTokenVerify(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("public-key-file")
	keyPEM, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to read public key: %w", err)
	}
	pub, err := signer.ParsePublicKey(string(keyPEM))
	if err != nil {
		return err
	}

	claims, err := signer.Verify(args[0], pub)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), claims)
}

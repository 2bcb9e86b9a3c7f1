package main

import (
	"fmt"
	"os"

	"github.com/benx421/payment-gateway/merchant/internal/cli"
	"github.com/joho/godotenv"
)

var version = "dev"

func main() {
	//nolint:errcheck // .env is optional
	godotenv.Load()

	if err := cli.NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

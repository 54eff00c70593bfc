package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	envFile    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "smc-paymentservice",
		Short:         "SMC-PaymentService - reconciliation of card payment notifications with rental bookings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.toml", "path to config.toml")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional .env file with secrets")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

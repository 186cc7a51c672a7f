package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/credfolha/planos-backoffice/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "planos-api",
		Short: "Backoffice API for installment plan management",
	}

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.RepairCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

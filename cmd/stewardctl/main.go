// Package main provides the stewardctl administration CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version      = "0.1.0-dev"
	globalSchema string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "stewardctl",
		Short:         "Administer the data steward: browse tables, apply edits, read the audit trail",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&globalSchema, "schema", "s", "", "Schema to operate on (defaults to DEFAULT_SCHEMA)")

	rootCmd.AddCommand(
		newMigrateCmd(),
		newSchemasCmd(),
		newTablesCmd(),
		newAuditCmd(),
		newApplyCmd(),
		newTokenCmd(),
		newHashKeyCmd(),
	)

	return rootCmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datasteward/steward/internal/app"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the audit table",
		Long:  "Creates the data_steward_audit table in the selected schema if it does not exist.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				schema := schemaOf(a)
				if err := a.Store.EnsureAuditTable(cmd.Context(), schema); err != nil {
					return fmt.Errorf("creating audit table: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Audit table ready in %s\n", schema)
				return nil
			})
		},
	}
}

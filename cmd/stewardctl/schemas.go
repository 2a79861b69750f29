package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datasteward/steward/internal/app"
)

func newSchemasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "List schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				schemas, err := a.Browse.ListSchemas(cmd.Context())
				if err != nil {
					return fmt.Errorf("listing schemas: %w", err)
				}
				for _, s := range schemas {
					fmt.Fprintln(cmd.OutOrStdout(), s)
				}
				return nil
			})
		},
	}
}

func newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables of a schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				tables, err := a.Browse.ListTables(cmd.Context(), schemaOf(a))
				if err != nil {
					return fmt.Errorf("listing tables: %w", err)
				}
				if len(tables) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No tables found.")
					return nil
				}
				for _, t := range tables {
					fmt.Fprintf(cmd.OutOrStdout(), "%-32s %-12s %s\n", t.Name, t.Type, t.Label)
				}
				return nil
			})
		},
	}
}

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/datasteward/steward/internal/app"
	"github.com/datasteward/steward/internal/domain"
)

func newAuditCmd() *cobra.Command {
	var filter domain.AuditFilter

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit trail",
		Long:  "Lists audit entries of the selected schema, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				entries, err := a.Browse.AuditHistory(cmd.Context(), schemaOf(a), filter)
				if err != nil {
					return fmt.Errorf("reading audit trail: %w", err)
				}
				displayAudit(cmd.OutOrStdout(), entries)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&filter.Table, "table", "t", "", "Filter by table")
	cmd.Flags().StringVarP(&filter.RecordID, "record", "r", "", "Filter by record id")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "l", domain.DefaultAuditLimit, "Maximum number of entries")

	return cmd
}

func displayAudit(w io.Writer, entries []domain.AuditEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No audit entries found.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-6s %s[%s].%s  %s -> %s  by %s\n",
			e.Timestamp.Format(time.RFC3339), e.Action, e.Table, e.RecordID, e.Column,
			orNull(e.OldValue), orNull(e.NewValue), e.Actor)
	}
}

func orNull(v *string) string {
	if v == nil {
		return "NULL"
	}
	return *v
}

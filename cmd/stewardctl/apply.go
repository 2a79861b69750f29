package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/datasteward/steward/internal/app"
	"github.com/datasteward/steward/internal/domain"
	"github.com/datasteward/steward/internal/usecase"
)

// snapshotFile is the on-disk form of an edit: the rows as loaded and the rows as edited
type snapshotFile struct {
	SessionID string       `json:"session_id"`
	Original  []domain.Row `json:"original"`
	Rows      []domain.Row `json:"rows"`
}

type applyOptions struct {
	table  string
	file   string
	actor  string
	dryRun bool
}

func newApplyCmd() *cobra.Command {
	var opts applyOptions

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply an edited snapshot to a table",
		Long: "Reads a JSON file holding the original and edited rows of a table, " +
			"then inserts, updates and deletes rows in one transaction with an audit entry per changed column.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				return runApply(cmd.Context(), a, opts, cmd.OutOrStdout())
			})
		},
	}

	cmd.Flags().StringVarP(&opts.table, "table", "t", "", "Table to apply the edit to (required)")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Path to the snapshot JSON file (required)")
	cmd.Flags().StringVar(&opts.actor, "actor", "", "Actor recorded in the audit trail (defaults to DEFAULT_ACTOR)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Show the planned changes without writing")
	_ = cmd.MarkFlagRequired("table")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runApply(ctx context.Context, a *app.App, opts applyOptions, out io.Writer) error {
	snap, err := readSnapshotFile(opts.file)
	if err != nil {
		return err
	}

	actor := opts.actor
	if actor == "" {
		actor = a.Config.Steward.DefaultActor
	}

	res, err := a.Reconciler.Reconcile(ctx, usecase.ReconcileRequest{
		Schema:    schemaOf(a),
		Table:     opts.table,
		Actor:     actor,
		SessionID: snap.SessionID,
		Original:  snap.Original,
		Current:   snap.Rows,
		DryRun:    opts.dryRun,
	})
	ok, message := usecase.Outcome(res, err)
	if !ok {
		return fmt.Errorf("applying %s: %s", opts.file, message)
	}

	if res.DryRun {
		fmt.Fprintln(out, "Dry run, nothing written:")
	}
	fmt.Fprintln(out, message)
	for _, s := range res.Skipped {
		fmt.Fprintf(out, "  skipped row %d (key %q): %s\n", s.Index, s.Key, s.Reason)
	}
	if res.DryRun {
		displayAudit(out, res.Audit)
	}
	return nil
}

func readSnapshotFile(path string) (*snapshotFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot file: %w", err)
	}
	defer f.Close()

	var snap snapshotFile
	decoder := json.NewDecoder(f)
	decoder.UseNumber()
	if err := decoder.Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot file: %w", err)
	}
	if snap.Rows == nil {
		return nil, fmt.Errorf("snapshot file %s has no rows", path)
	}
	return &snap, nil
}

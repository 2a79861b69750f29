package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/datasteward/steward/internal/domain"
	"github.com/datasteward/steward/internal/infra/logger"
	"github.com/datasteward/steward/internal/ports"
)

// ReconcileRequest represents one save of an edited table
type ReconcileRequest struct {
	Schema string `json:"schema"`
	Table  string `json:"table"`
	Actor  string `json:"actor"`
	// SessionID selects a stored original snapshot; Original is used when empty
	SessionID string       `json:"session_id,omitempty"`
	Original  []domain.Row `json:"original,omitempty"`
	Current   []domain.Row `json:"rows"`
	DryRun    bool         `json:"dry_run,omitempty"`
}

// ReconcileResult represents the outcome of a reconciliation
type ReconcileResult struct {
	RunID       string              `json:"run_id"`
	Success     bool                `json:"success"`
	DryRun      bool                `json:"dry_run,omitempty"`
	Summary     string              `json:"summary"`
	Inserted    int                 `json:"inserted"`
	Changes     int                 `json:"changes"`
	UpdatedRows int                 `json:"updated_rows"`
	Deleted     int                 `json:"deleted"`
	Skipped     []domain.SkippedRow `json:"skipped,omitempty"`
	Audit       []domain.AuditEntry `json:"audit"`
	// Snapshot is the new original after a successful save
	Snapshot *domain.Snapshot `json:"snapshot,omitempty"`
}

// Outcome reduces a reconciliation to its success flag and message
func Outcome(res *ReconcileResult, err error) (bool, string) {
	if err != nil {
		return false, err.Error()
	}
	if res == nil {
		return false, "no result"
	}
	return res.Success, res.Summary
}

// Reconciler diffs snapshots and applies the difference transactionally
type Reconciler struct {
	store    ports.TableStore
	sessions ports.SessionStore
	log      logger.Logger
	now      func() time.Time

	// one reconciliation at a time
	mu sync.Mutex
}

// NewReconciler creates a new reconciler; sessions may be nil
func NewReconciler(store ports.TableStore, sessions ports.SessionStore, log logger.Logger) *Reconciler {
	return &Reconciler{
		store:    store,
		sessions: sessions,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Reconcile computes and applies the changes between the original and
// current rows of one table. Nothing is committed unless every statement
// and audit write succeeds.
func (r *Reconciler) Reconcile(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref := domain.TableRef{Schema: req.Schema, Table: req.Table}
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if ref.IsAuditTable() {
		return nil, domain.ErrAuditTableReadOnly(ref)
	}
	if req.Actor == "" {
		return nil, domain.ErrInvalidRequest("actor is required")
	}

	original, err := r.resolveOriginal(ctx, ref, req)
	if err != nil {
		return nil, err
	}

	// one pool for the whole run so a credential refresh cannot split it
	store, release, err := r.store.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	columns, err := store.Columns(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", ref, err)
	}
	if len(columns) == 0 {
		return nil, domain.ErrTableNotFound(ref)
	}
	names := domain.ColumnNames(columns)

	plan, err := domain.BuildPlan(names, original, req.Current)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	log := r.log.WithFields(map[string]interface{}{
		"run_id": runID,
		"schema": ref.Schema,
		"table":  ref.Table,
		"actor":  req.Actor,
	})
	for _, s := range plan.Skipped {
		log.Warn(ctx, "Row skipped", map[string]interface{}{"index": s.Index, "key": s.Key, "reason": string(s.Reason)})
	}

	auditCtx := domain.AuditContext{Table: ref.Table, Actor: req.Actor, At: r.now()}
	if req.DryRun {
		res := r.preview(runID, plan, auditCtx)
		log.Info(ctx, "Dry run planned", map[string]interface{}{"summary": res.Summary})
		return res, nil
	}

	start := time.Now()
	log.Info(ctx, "Reconciliation started", map[string]interface{}{
		"inserts": len(plan.Inserts),
		"updates": len(plan.Updates),
		"deletes": len(plan.Deletes),
	})

	res, keys, err := r.apply(ctx, store, ref, plan, auditCtx, log)
	if err != nil {
		log.Error(ctx, "Reconciliation rolled back", err, nil)
		return nil, err
	}
	res.RunID = runID
	res.Snapshot = nextSnapshot(ref, columns, plan, req.Current, keys)

	if req.SessionID != "" && r.sessions != nil {
		if err := r.sessions.Delete(ctx, req.SessionID); err != nil {
			log.Warn(ctx, "Failed to discard edit session", map[string]interface{}{"session_id": req.SessionID, "error": err.Error()})
		}
	}

	logger.LogPerformance(ctx, log, "reconcile", time.Since(start), map[string]interface{}{"summary": res.Summary})
	return res, nil
}

func (r *Reconciler) resolveOriginal(ctx context.Context, ref domain.TableRef, req ReconcileRequest) ([]domain.Row, error) {
	if req.SessionID == "" {
		return req.Original, nil
	}
	if r.sessions == nil {
		return nil, domain.ErrSessionNotFound(req.SessionID)
	}
	session, err := r.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Ref() != ref {
		return nil, domain.ErrInvalidRequest(fmt.Sprintf("session %s belongs to %s", session.ID, session.Ref()))
	}
	if session.Actor != req.Actor {
		return nil, domain.ErrUnauthorized(fmt.Sprintf("session %s was opened by another actor", session.ID))
	}
	return session.Original.Rows, nil
}

// apply runs the plan inside one transaction: updates, then inserts, then
// deletes, each followed by its audit entries. It returns the generated
// keys by current row index.
func (r *Reconciler) apply(ctx context.Context, store ports.TableStore, ref domain.TableRef, plan *domain.Plan, auditCtx domain.AuditContext, log logger.Logger) (*ReconcileResult, map[int]any, error) {
	res := &ReconcileResult{Skipped: plan.Skipped}
	keys := make(map[int]any, len(plan.Inserts))

	if plan.IsEmpty() {
		res.Success = true
		res.Summary = domain.Summarize(0, 0, 0)
		res.Audit = []domain.AuditEntry{}
		return res, keys, nil
	}

	if err := store.EnsureAuditTable(ctx, ref.Schema); err != nil {
		return nil, nil, fmt.Errorf("failed to prepare audit table: %w", err)
	}

	tx, err := store.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Warn(ctx, "Rollback failed", map[string]interface{}{"error": rbErr.Error()})
			}
		}
	}()

	pk := plan.PrimaryKey
	var audit []domain.AuditEntry

	for _, upd := range plan.Updates {
		if err := tx.Update(ctx, ref, pk, upd.Key, upd.Columns(), upd.Values()); err != nil {
			return nil, nil, fmt.Errorf("failed to update %s %s=%s: %w", ref, pk, upd.RecordID, err)
		}
		entries := auditCtx.UpdateAudit(upd)
		if err := tx.AppendAudit(ctx, ref.Schema, entries); err != nil {
			return nil, nil, fmt.Errorf("failed to write audit: %w", err)
		}
		audit = append(audit, entries...)
		res.UpdatedRows++
		log.Debug(ctx, "Row updated", map[string]interface{}{"record_id": upd.RecordID, "columns": upd.Columns()})
	}

	for _, ins := range plan.Inserts {
		key, err := tx.Insert(ctx, ref, pk, ins.Columns, ins.Values)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to insert into %s: %w", ref, err)
		}
		recordID := domain.KeyString(key)
		entries := auditCtx.InsertAudit(ins, recordID)
		if err := tx.AppendAudit(ctx, ref.Schema, entries); err != nil {
			return nil, nil, fmt.Errorf("failed to write audit: %w", err)
		}
		audit = append(audit, entries...)
		keys[ins.Index] = key
		log.Debug(ctx, "Row inserted", map[string]interface{}{"record_id": recordID})
	}

	for _, del := range plan.Deletes {
		if err := tx.Delete(ctx, ref, pk, del.Key); err != nil {
			return nil, nil, fmt.Errorf("failed to delete %s %s=%s: %w", ref, pk, del.RecordID, err)
		}
		entries := auditCtx.DeleteAudit(del)
		if err := tx.AppendAudit(ctx, ref.Schema, entries); err != nil {
			return nil, nil, fmt.Errorf("failed to write audit: %w", err)
		}
		audit = append(audit, entries...)
		log.Debug(ctx, "Row deleted", map[string]interface{}{"record_id": del.RecordID})
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit: %w", err)
	}
	committed = true

	res.Success = true
	res.Inserted = len(plan.Inserts)
	res.Changes = plan.ChangeCount()
	res.Deleted = len(plan.Deletes)
	res.Audit = audit
	res.Summary = domain.Summarize(res.Inserted, res.Changes, res.Deleted)
	return res, keys, nil
}

// preview reports what a save would do without touching the store
func (r *Reconciler) preview(runID string, plan *domain.Plan, auditCtx domain.AuditContext) *ReconcileResult {
	res := &ReconcileResult{
		RunID:       runID,
		Success:     true,
		DryRun:      true,
		Inserted:    len(plan.Inserts),
		Changes:     plan.ChangeCount(),
		UpdatedRows: len(plan.Updates),
		Deleted:     len(plan.Deletes),
		Skipped:     plan.Skipped,
		Audit:       []domain.AuditEntry{},
	}
	for _, upd := range plan.Updates {
		res.Audit = append(res.Audit, auditCtx.UpdateAudit(upd)...)
	}
	for _, ins := range plan.Inserts {
		res.Audit = append(res.Audit, auditCtx.InsertAudit(ins, "NEW")...)
	}
	for _, del := range plan.Deletes {
		res.Audit = append(res.Audit, auditCtx.DeleteAudit(del)...)
	}
	res.Summary = domain.Summarize(res.Inserted, res.Changes, res.Deleted)
	return res
}

// nextSnapshot builds the original for the next edit cycle: markers
// cleared, generated keys filled in, removed and skipped rows dropped.
func nextSnapshot(ref domain.TableRef, columns []domain.Column, plan *domain.Plan, current []domain.Row, keys map[int]any) *domain.Snapshot {
	skipped := make(map[int]struct{}, len(plan.Skipped))
	for _, s := range plan.Skipped {
		skipped[s.Index] = struct{}{}
	}

	snap := &domain.Snapshot{
		Schema:  ref.Schema,
		Table:   ref.Table,
		Columns: columns,
		Rows:    make([]domain.Row, 0, len(current)),
	}
	for i, row := range current {
		if row.IsDeleted {
			continue
		}
		if _, ok := skipped[i]; ok {
			continue
		}
		next := row.Clone()
		if key, ok := keys[i]; ok {
			next.Data[plan.PrimaryKey] = key
		} else if row.IsNew {
			continue
		}
		snap.Rows = append(snap.Rows, next)
	}
	return snap
}

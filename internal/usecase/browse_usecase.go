package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/datasteward/steward/internal/domain"
	"github.com/datasteward/steward/internal/infra/logger"
	"github.com/datasteward/steward/internal/ports"
)

// BrowseUseCase handles schema discovery, table loading and edit sessions
type BrowseUseCase struct {
	store    ports.TableStore
	sessions ports.SessionStore
	log      logger.Logger
}

// NewBrowseUseCase creates a new browse use case
func NewBrowseUseCase(store ports.TableStore, sessions ports.SessionStore, log logger.Logger) *BrowseUseCase {
	return &BrowseUseCase{
		store:    store,
		sessions: sessions,
		log:      log,
	}
}

// ListSchemas returns the user schemas of the database
func (uc *BrowseUseCase) ListSchemas(ctx context.Context) ([]string, error) {
	schemas, err := uc.store.ListSchemas(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	return schemas, nil
}

// ListTables returns the labelled tables of a schema
func (uc *BrowseUseCase) ListTables(ctx context.Context, schema string) ([]domain.TableInfo, error) {
	if strings.TrimSpace(schema) == "" {
		return nil, domain.ErrInvalidRequest("schema is required")
	}

	tables, err := uc.store.ListTables(ctx, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables of %s: %w", schema, err)
	}
	for i := range tables {
		tables[i].Label = domain.TableLabel(tables[i].Name)
	}
	return tables, nil
}

// LoadTable reads the full snapshot of a table
func (uc *BrowseUseCase) LoadTable(ctx context.Context, ref domain.TableRef) (*domain.Snapshot, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	store, release, err := uc.store.Acquire(ctx)
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

	rows, err := store.LoadRows(ctx, ref, columns)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", ref, err)
	}

	return &domain.Snapshot{
		Schema:  ref.Schema,
		Table:   ref.Table,
		Columns: columns,
		Rows:    rows,
	}, nil
}

// OpenSession loads a table and stores it as the baseline of an edit session
func (uc *BrowseUseCase) OpenSession(ctx context.Context, ref domain.TableRef, actor string) (*domain.EditSession, error) {
	if ref.IsAuditTable() {
		return nil, domain.ErrAuditTableReadOnly(ref)
	}

	snapshot, err := uc.LoadTable(ctx, ref)
	if err != nil {
		return nil, err
	}

	session := domain.NewEditSession(actor, *snapshot)
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save edit session: %w", err)
	}

	uc.log.Info(ctx, "Edit session opened", map[string]interface{}{
		"session_id": session.ID,
		"table":      ref.String(),
		"actor":      actor,
		"rows":       len(snapshot.Rows),
	})
	return session, nil
}

// GetSession retrieves an open edit session
func (uc *BrowseUseCase) GetSession(ctx context.Context, id string) (*domain.EditSession, error) {
	if id == "" {
		return nil, domain.ErrInvalidRequest("session id is required")
	}
	return uc.sessions.Get(ctx, id)
}

// DiscardSession cancels an edit session without saving
func (uc *BrowseUseCase) DiscardSession(ctx context.Context, id string) error {
	if _, err := uc.GetSession(ctx, id); err != nil {
		return err
	}
	if err := uc.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to discard edit session: %w", err)
	}
	uc.log.Info(ctx, "Edit session discarded", map[string]interface{}{"session_id": id})
	return nil
}

// AuditHistory returns the newest audit entries of a schema
func (uc *BrowseUseCase) AuditHistory(ctx context.Context, schema string, filter domain.AuditFilter) ([]domain.AuditEntry, error) {
	if strings.TrimSpace(schema) == "" {
		return nil, domain.ErrInvalidRequest("schema is required")
	}
	if err := uc.store.EnsureAuditTable(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to prepare audit table: %w", err)
	}

	entries, err := uc.store.ListAudit(ctx, schema, filter.Normalize())
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}

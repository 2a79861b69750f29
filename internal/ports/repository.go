package ports

import (
	"context"
	"database/sql"

	"github.com/datasteward/steward/internal/domain"
)

// CatalogReader defines read access to schema metadata and table contents
type CatalogReader interface {
	// ListSchemas returns user schemas sorted by name
	ListSchemas(ctx context.Context) ([]string, error)

	// ListTables returns the tables of a schema sorted by name
	ListTables(ctx context.Context, schema string) ([]domain.TableInfo, error)

	// Columns returns column metadata in ordinal order; empty when the table does not exist
	Columns(ctx context.Context, ref domain.TableRef) ([]domain.Column, error)

	// LoadRows returns every row of a table ordered by its first column
	LoadRows(ctx context.Context, ref domain.TableRef, columns []domain.Column) ([]domain.Row, error)
}

// AuditStore defines the interface for the per-schema audit log
type AuditStore interface {
	// EnsureAuditTable creates the audit table of a schema if it is absent
	EnsureAuditTable(ctx context.Context, schema string) error

	// ListAudit retrieves audit entries newest first
	ListAudit(ctx context.Context, schema string, filter domain.AuditFilter) ([]domain.AuditEntry, error)
}

// TableStore is the transactional relational store the Reconciler writes to
type TableStore interface {
	CatalogReader
	AuditStore

	// Begin starts the single transaction of one reconciliation
	Begin(ctx context.Context) (TableTx, error)

	// Acquire returns a view of the store bound to one pool. The pool stays
	// open, even across a credential refresh, until release is called.
	Acquire(ctx context.Context) (store TableStore, release func(), err error)
}

// TableTx runs the statements of one reconciliation
type TableTx interface {
	// Insert adds a row with a store-generated primary key and returns that key
	Insert(ctx context.Context, ref domain.TableRef, pk string, columns []string, values []any) (any, error)

	// Update sets columns of the row identified by key in one statement
	Update(ctx context.Context, ref domain.TableRef, pk string, key any, columns []string, values []any) error

	// Delete removes the row identified by key
	Delete(ctx context.Context, ref domain.TableRef, pk string, key any) error

	// AppendAudit writes audit entries to the schema's audit table
	AppendAudit(ctx context.Context, schema string, entries []domain.AuditEntry) error

	Commit() error
	Rollback() error
}

// ConnectionProvider hands out the current credentialed connection pool
type ConnectionProvider interface {
	// DB returns the pool, refreshing credentials first when they are stale
	DB(ctx context.Context) (*sql.DB, error)

	// Lease returns the pool like DB and keeps it open until release is called
	Lease(ctx context.Context) (db *sql.DB, release func(), err error)

	// Close releases the pool
	Close() error
}

// SessionStore keeps edit sessions between load and save
type SessionStore interface {
	// Save stores a session until it expires
	Save(ctx context.Context, session *domain.EditSession) error

	// Get retrieves a session; domain.ErrSessionMissing when absent or expired
	Get(ctx context.Context, id string) (*domain.EditSession, error)

	// Delete removes a session
	Delete(ctx context.Context, id string) error
}

package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/datasteward/steward/internal/domain"
	"github.com/datasteward/steward/internal/ports"
)

// SQLStore implements ports.TableStore over database/sql for any Dialect.
// The pool is taken from the connection provider on every call so that a
// credential refresh between calls is picked up. Work that must see one
// pool throughout goes through Acquire.
type SQLStore struct {
	provider ports.ConnectionProvider
	dialect  Dialect
}

// NewSQLStore creates a new table store
func NewSQLStore(provider ports.ConnectionProvider, dialect Dialect) *SQLStore {
	return &SQLStore{provider: provider, dialect: dialect}
}

// Dialect returns the SQL dialect of the store
func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

// Acquire leases the current pool and returns a store bound to it
func (s *SQLStore) Acquire(ctx context.Context) (ports.TableStore, func(), error) {
	db, release, err := s.provider.Lease(ctx)
	if err != nil {
		return nil, nil, domain.ErrConnectivity("acquire pool", err)
	}
	return &SQLStore{provider: pinnedPool{db: db}, dialect: s.dialect}, release, nil
}

// pinnedPool always hands out the same pool; its owner closes it
type pinnedPool struct {
	db *sql.DB
}

func (p pinnedPool) DB(context.Context) (*sql.DB, error) { return p.db, nil }

func (p pinnedPool) Lease(context.Context) (*sql.DB, func(), error) {
	return p.db, func() {}, nil
}

func (p pinnedPool) Close() error { return nil }

func (s *SQLStore) db(ctx context.Context) (*sql.DB, error) {
	db, err := s.provider.DB(ctx)
	if err != nil {
		return nil, domain.ErrConnectivity("acquire pool", err)
	}
	return db, nil
}

// ListSchemas returns user schemas sorted by name
func (s *SQLStore) ListSchemas(ctx context.Context) ([]string, error) {
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, s.dialect.ListSchemasQuery())
	if err != nil {
		return nil, s.dialect.ClassifyError("list schemas", err)
	}
	defer rows.Close()

	var schemas []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan schema: %w", err)
		}
		schemas = append(schemas, name)
	}
	if err := rows.Err(); err != nil {
		return nil, s.dialect.ClassifyError("list schemas", err)
	}
	return schemas, nil
}

// ListTables tries each lookup of the dialect until one finds tables
func (s *SQLStore) ListTables(ctx context.Context, schema string) ([]domain.TableInfo, error) {
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}

	for _, q := range s.dialect.ListTablesQueries(schema) {
		tables, err := queryTables(ctx, db, q)
		if err != nil {
			return nil, s.dialect.ClassifyError("list tables", err)
		}
		if len(tables) > 0 {
			return tables, nil
		}
	}
	return []domain.TableInfo{}, nil
}

func queryTables(ctx context.Context, db *sql.DB, q Query) ([]domain.TableInfo, error) {
	rows, err := db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []domain.TableInfo
	for rows.Next() {
		var t domain.TableInfo
		if err := rows.Scan(&t.Name, &t.Type); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// Columns returns column metadata in ordinal order
func (s *SQLStore) Columns(ctx context.Context, ref domain.TableRef) ([]domain.Column, error) {
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}

	q := s.dialect.ColumnsQuery(ref)
	rows, err := db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, s.dialect.ClassifyError("read columns", err)
	}
	defer rows.Close()

	columns := []domain.Column{}
	for rows.Next() {
		var c domain.Column
		var nullable string
		var def sql.NullString
		if err := rows.Scan(&c.Name, &c.DataType, &nullable, &def); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		c.Nullable = strings.EqualFold(nullable, "YES")
		if def.Valid {
			c.Default = &def.String
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, s.dialect.ClassifyError("read columns", err)
	}
	return columns, nil
}

// LoadRows returns every row of a table ordered by its first column
func (s *SQLStore) LoadRows(ctx context.Context, ref domain.TableRef, columns []domain.Column) ([]domain.Row, error) {
	if len(columns) == 0 {
		return nil, domain.ErrTableNotFound(ref)
	}
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}

	names := domain.ColumnNames(columns)
	rows, err := db.QueryContext(ctx, selectAllQuery(s.dialect, ref, names))
	if err != nil {
		return nil, s.dialect.ClassifyError("load rows", err)
	}
	defer rows.Close()

	result := []domain.Row{}
	for rows.Next() {
		data, err := rowToMap(rows, names)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", ref, err)
		}
		result = append(result, domain.NewRow(data))
	}
	if err := rows.Err(); err != nil {
		return nil, s.dialect.ClassifyError("load rows", err)
	}
	return result, nil
}

// EnsureAuditTable creates the audit table of a schema if it is absent
func (s *SQLStore) EnsureAuditTable(ctx context.Context, schema string) error {
	db, err := s.db(ctx)
	if err != nil {
		return err
	}
	for _, stmt := range s.dialect.AuditDDL(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return s.dialect.ClassifyError("create audit table", err)
		}
	}
	return nil
}

// ListAudit retrieves audit entries newest first
func (s *SQLStore) ListAudit(ctx context.Context, schema string, filter domain.AuditFilter) ([]domain.AuditEntry, error) {
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}

	q := listAuditQuery(s.dialect, schema, filter.Normalize())
	rows, err := db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, s.dialect.ClassifyError("list audit", err)
	}
	defer rows.Close()

	entries := []domain.AuditEntry{}
	for rows.Next() {
		var e domain.AuditEntry
		var ts any
		var actor, oldValue, newValue, action sql.NullString
		if err := rows.Scan(&e.ID, &ts, &actor, &e.Table, &e.RecordID, &e.Column, &oldValue, &newValue, &action); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Timestamp = parseTimestamp(ts)
		e.Actor = actor.String
		e.OldValue = nullableString(oldValue)
		e.NewValue = nullableString(newValue)
		e.Action = domain.AuditAction(action.String)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, s.dialect.ClassifyError("list audit", err)
	}
	return entries, nil
}

// Begin starts a transaction pinned to one pooled connection
func (s *SQLStore) Begin(ctx context.Context) (ports.TableTx, error) {
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, s.dialect.ClassifyError("begin", err)
	}
	return &sqlTx{tx: tx, dialect: s.dialect}, nil
}

type sqlTx struct {
	tx      *sql.Tx
	dialect Dialect
}

func (t *sqlTx) Insert(ctx context.Context, ref domain.TableRef, pk string, columns []string, values []any) (any, error) {
	var key any
	if err := t.tx.QueryRowContext(ctx, t.dialect.InsertQuery(ref, pk, columns), values...).Scan(&key); err != nil {
		return nil, t.dialect.ClassifyError("insert", err)
	}
	return normalizeValue(key), nil
}

func (t *sqlTx) Update(ctx context.Context, ref domain.TableRef, pk string, key any, columns []string, values []any) error {
	args := append(append([]any{}, values...), key)
	if _, err := t.tx.ExecContext(ctx, updateQuery(t.dialect, ref, pk, columns), args...); err != nil {
		return t.dialect.ClassifyError("update", err)
	}
	return nil
}

func (t *sqlTx) Delete(ctx context.Context, ref domain.TableRef, pk string, key any) error {
	if _, err := t.tx.ExecContext(ctx, deleteQuery(t.dialect, ref, pk), key); err != nil {
		return t.dialect.ClassifyError("delete", err)
	}
	return nil
}

func (t *sqlTx) AppendAudit(ctx context.Context, schema string, entries []domain.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}
	stmt, err := t.tx.PrepareContext(ctx, insertAuditQuery(t.dialect, schema))
	if err != nil {
		return t.dialect.ClassifyError("prepare audit", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			e.Timestamp,
			e.Actor,
			e.Table,
			e.RecordID,
			e.Column,
			e.OldValue,
			e.NewValue,
			string(e.Action),
		); err != nil {
			return t.dialect.ClassifyError("write audit", err)
		}
	}
	return nil
}

func (t *sqlTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return t.dialect.ClassifyError("commit", err)
	}
	return nil
}

func (t *sqlTx) Rollback() error {
	err := t.tx.Rollback()
	if err == sql.ErrTxDone {
		return nil
	}
	return err
}

// rowToMap scans the current row into a column-keyed map
func rowToMap(rows *sql.Rows, columns []string) (map[string]any, error) {
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	data := make(map[string]any, len(columns))
	for i, col := range columns {
		data[col] = normalizeValue(values[i])
	}
	return data, nil
}

func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTimestamp(v any) time.Time {
	var s string
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

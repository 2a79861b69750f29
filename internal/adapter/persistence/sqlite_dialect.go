package persistence

import (
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/datasteward/steward/internal/domain"
)

// SQLiteDialect targets an embedded SQLite database through modernc.org/sqlite.
// Attached databases play the role of schemas; the default one is "main".
type SQLiteDialect struct{}

func (SQLiteDialect) Name() string       { return "sqlite" }
func (SQLiteDialect) DriverName() string { return "sqlite" }

func (SQLiteDialect) Placeholder(int) string { return "?" }

func (SQLiteDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d SQLiteDialect) Qualify(schema, table string) string {
	return d.QuoteIdent(schema) + "." + d.QuoteIdent(table)
}

func (SQLiteDialect) ListSchemasQuery() string {
	return `SELECT name FROM pragma_database_list WHERE name <> 'temp' ORDER BY name`
}

func (d SQLiteDialect) ListTablesQueries(schema string) []Query {
	master := d.QuoteIdent(schema) + ".sqlite_master"
	return []Query{
		{SQL: fmt.Sprintf(`
			SELECT name, 'BASE TABLE'
			FROM %s
			WHERE type = 'table' AND name NOT LIKE 'sqlite_%%'
			ORDER BY name
		`, master)},
		{SQL: fmt.Sprintf(`
			SELECT name, CASE type WHEN 'table' THEN 'BASE TABLE' ELSE 'VIEW' END
			FROM %s
			WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%%'
			ORDER BY name
		`, master)},
	}
}

func (SQLiteDialect) ColumnsQuery(ref domain.TableRef) Query {
	return Query{SQL: `
		SELECT name, type, CASE WHEN "notnull" = 1 OR pk > 0 THEN 'NO' ELSE 'YES' END, dflt_value
		FROM pragma_table_info(?, ?)
		ORDER BY cid
	`, Args: []any{ref.Table, ref.Schema}}
}

// InsertQuery leaves the key column out so SQLite assigns the rowid
func (d SQLiteDialect) InsertQuery(ref domain.TableRef, pk string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		d.Qualify(ref.Schema, ref.Table),
		quoteColumns(d, columns),
		placeholders(d, 1, len(columns)),
		d.QuoteIdent(pk),
	)
}

func (d SQLiteDialect) AuditDDL(schema string) []string {
	return []string{fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			audit_id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			username TEXT,
			table_name TEXT NOT NULL,
			record_id TEXT NOT NULL,
			column_name TEXT NOT NULL,
			old_value TEXT,
			new_value TEXT,
			action_type TEXT DEFAULT 'UPDATE'
		)
	`, d.Qualify(schema, domain.AuditTableName))}
}

func (SQLiteDialect) ClassifyError(operation string, err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}
	switch sqliteErr.Code() & 0xff {
	case sqlite3.SQLITE_CONSTRAINT:
		return domain.ErrConstraintViolation(err)
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_IOERR:
		return domain.ErrConnectivity(operation, err)
	}
	if strings.Contains(err.Error(), "unknown database") {
		return domain.NewAppError(domain.ErrCodeTableNotFound, "Schema not found", err.Error(), err)
	}
	if strings.Contains(err.Error(), "no such table") {
		return domain.NewAppError(domain.ErrCodeTableNotFound, "Table not found", err.Error(), err)
	}
	return err
}

package persistence

import (
	"fmt"
	"strings"

	"github.com/datasteward/steward/internal/domain"
)

// Dialect isolates the SQL differences between supported databases
type Dialect interface {
	// Name identifies the dialect in configuration and logs
	Name() string

	// DriverName is the database/sql driver to open
	DriverName() string

	// Placeholder returns the n-th (1-based) bind parameter
	Placeholder(n int) string

	// QuoteIdent quotes a single identifier
	QuoteIdent(name string) string

	// Qualify renders a quoted schema-qualified table name
	Qualify(schema, table string) string

	// ListSchemasQuery returns user schemas ordered by name
	ListSchemasQuery() string

	// ListTablesQueries returns lookups tried in order until one yields rows
	ListTablesQueries(schema string) []Query

	// ColumnsQuery returns name, data type, nullability ("YES"/"NO") and default
	ColumnsQuery(ref domain.TableRef) Query

	// InsertQuery inserts columns and returns the generated primary key
	InsertQuery(ref domain.TableRef, pk string, columns []string) string

	// AuditDDL creates the audit table of a schema if absent
	AuditDDL(schema string) []string

	// ClassifyError maps a driver error onto the domain error catalog
	ClassifyError(operation string, err error) error
}

// Query is a statement with its arguments
type Query struct {
	SQL  string
	Args []any
}

// NewDialect returns the dialect registered under name
func NewDialect(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "":
		return PostgresDialect{}, nil
	case "sqlite", "sqlite3":
		return SQLiteDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", name)
	}
}

func quoteColumns(d Dialect, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}

func placeholders(d Dialect, from, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = d.Placeholder(from + i)
	}
	return strings.Join(ph, ", ")
}

func updateQuery(d Dialect, ref domain.TableRef, pk string, columns []string) string {
	set := make([]string, len(columns))
	for i, c := range columns {
		set[i] = fmt.Sprintf("%s = %s", d.QuoteIdent(c), d.Placeholder(i+1))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		d.Qualify(ref.Schema, ref.Table),
		strings.Join(set, ", "),
		d.QuoteIdent(pk),
		d.Placeholder(len(columns)+1),
	)
}

func deleteQuery(d Dialect, ref domain.TableRef, pk string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		d.Qualify(ref.Schema, ref.Table), d.QuoteIdent(pk), d.Placeholder(1))
}

func selectAllQuery(d Dialect, ref domain.TableRef, columns []string) string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		quoteColumns(d, columns), d.Qualify(ref.Schema, ref.Table), d.QuoteIdent(columns[0]))
}

var auditColumns = []string{"timestamp", "username", "table_name", "record_id", "column_name", "old_value", "new_value", "action_type"}

func insertAuditQuery(d Dialect, schema string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.Qualify(schema, domain.AuditTableName),
		quoteColumns(d, auditColumns),
		placeholders(d, 1, len(auditColumns)),
	)
}

func listAuditQuery(d Dialect, schema string, filter domain.AuditFilter) Query {
	var conditions []string
	var args []any
	argIndex := 1

	if filter.Table != "" {
		conditions = append(conditions, fmt.Sprintf("table_name = %s", d.Placeholder(argIndex)))
		args = append(args, filter.Table)
		argIndex++
	}
	if filter.RecordID != "" {
		conditions = append(conditions, fmt.Sprintf("record_id = %s", d.Placeholder(argIndex)))
		args = append(args, filter.RecordID)
		argIndex++
	}

	query := fmt.Sprintf("SELECT audit_id, %s FROM %s",
		quoteColumns(d, auditColumns), d.Qualify(schema, domain.AuditTableName))
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY audit_id DESC LIMIT %s", d.Placeholder(argIndex))
	args = append(args, filter.Limit)

	return Query{SQL: query, Args: args}
}

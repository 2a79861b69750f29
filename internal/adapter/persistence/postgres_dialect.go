package persistence

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/datasteward/steward/internal/domain"
)

// PostgresDialect targets PostgreSQL through lib/pq
type PostgresDialect struct{}

func (PostgresDialect) Name() string       { return "postgres" }
func (PostgresDialect) DriverName() string { return "postgres" }

func (PostgresDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (PostgresDialect) QuoteIdent(name string) string { return pq.QuoteIdentifier(name) }

func (d PostgresDialect) Qualify(schema, table string) string {
	return d.QuoteIdent(schema) + "." + d.QuoteIdent(table)
}

func (PostgresDialect) ListSchemasQuery() string {
	return `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('information_schema', 'pg_catalog', 'pg_toast')
		ORDER BY schema_name
	`
}

// ListTablesQueries prefers base tables, then any table type, then a
// case-insensitive schema match.
func (PostgresDialect) ListTablesQueries(schema string) []Query {
	return []Query{
		{SQL: `
			SELECT table_name, table_type
			FROM information_schema.tables
			WHERE table_schema = $1 AND table_type = 'BASE TABLE'
			ORDER BY table_name
		`, Args: []any{schema}},
		{SQL: `
			SELECT table_name, table_type
			FROM information_schema.tables
			WHERE table_schema = $1
			ORDER BY table_name
		`, Args: []any{schema}},
		{SQL: `
			SELECT table_name, table_type
			FROM information_schema.tables
			WHERE LOWER(table_schema) = LOWER($1)
			ORDER BY table_name
		`, Args: []any{schema}},
	}
}

func (PostgresDialect) ColumnsQuery(ref domain.TableRef) Query {
	return Query{SQL: `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`, Args: []any{ref.Schema, ref.Table}}
}

// SequenceLiteral names the {table}_{pk}_seq sequence of a table as a
// quoted regclass literal
func (d PostgresDialect) SequenceLiteral(ref domain.TableRef, pk string) string {
	return pq.QuoteLiteral(d.Qualify(ref.Schema, ref.Table+"_"+pk+"_seq"))
}

// InsertQuery draws the key from the table's sequence and returns it
func (d PostgresDialect) InsertQuery(ref domain.TableRef, pk string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (nextval(%s), %s) RETURNING %s",
		d.Qualify(ref.Schema, ref.Table),
		d.QuoteIdent(pk),
		quoteColumns(d, columns),
		d.SequenceLiteral(ref, pk),
		placeholders(d, 1, len(columns)),
		d.QuoteIdent(pk),
	)
}

func (d PostgresDialect) AuditDDL(schema string) []string {
	return []string{fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			audit_id SERIAL PRIMARY KEY,
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			username VARCHAR(255),
			table_name VARCHAR(255) NOT NULL,
			record_id VARCHAR(255) NOT NULL,
			column_name VARCHAR(255) NOT NULL,
			old_value TEXT,
			new_value TEXT,
			action_type VARCHAR(20) DEFAULT 'UPDATE'
		)
	`, d.Qualify(schema, domain.AuditTableName))}
}

// ClassifyError maps SQLSTATE classes: 23 integrity, 08 connection,
// 28 authorization, 3D/3F missing catalog/schema, 42P01 missing table.
func (PostgresDialect) ClassifyError(operation string, err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code.Class() {
	case "23":
		return domain.ErrConstraintViolation(err)
	case "08", "28", "57":
		return domain.ErrConnectivity(operation, err)
	case "3D", "3F":
		return domain.NewAppError(domain.ErrCodeTableNotFound, "Schema not found", pqErr.Message, err)
	}
	if pqErr.Code == "42P01" {
		return domain.NewAppError(domain.ErrCodeTableNotFound, "Table not found", pqErr.Message, err)
	}
	return err
}

package domain

import (
	"fmt"
	"strings"
)

// Row represents a single table row as exchanged with the editing client.
// Editing state travels in explicit flags, never inside Data.
type Row struct {
	Data      map[string]any `json:"data"`
	IsNew     bool           `json:"is_new,omitempty"`
	IsDeleted bool           `json:"is_deleted,omitempty"`
}

// NewRow creates a persisted (unflagged) row
func NewRow(data map[string]any) Row {
	if data == nil {
		data = map[string]any{}
	}
	return Row{Data: data}
}

// Value returns the value stored for column and whether the column is present
func (r Row) Value(column string) (any, bool) {
	if r.Data == nil {
		return nil, false
	}
	v, ok := r.Data[column]
	return v, ok
}

// Clone returns a copy of the row with its own data map and no flags
func (r Row) Clone() Row {
	data := make(map[string]any, len(r.Data))
	for k, v := range r.Data {
		data[k] = v
	}
	return Row{Data: data}
}

// Column describes one column of a table in ordinal order
type Column struct {
	Name     string  `json:"name"`
	DataType string  `json:"data_type"`
	Nullable bool    `json:"nullable"`
	Default  *string `json:"default,omitempty"`
}

// TableRef identifies a table inside a schema
type TableRef struct {
	Schema string `json:"schema"`
	Table  string `json:"table"`
}

// String renders the reference as schema.table
func (t TableRef) String() string {
	return t.Schema + "." + t.Table
}

// Validate checks that both parts are present
func (t TableRef) Validate() error {
	if strings.TrimSpace(t.Schema) == "" {
		return ErrInvalidRequest("schema is required")
	}
	if strings.TrimSpace(t.Table) == "" {
		return ErrInvalidRequest("table is required")
	}
	return nil
}

// IsAuditTable reports whether the reference points at the audit log itself
func (t TableRef) IsAuditTable() bool {
	return strings.EqualFold(t.Table, AuditTableName)
}

// TableInfo is a table as listed for a schema
type TableInfo struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

// Snapshot is a point-in-time ordered set of rows for one table.
// The first column is the primary key.
type Snapshot struct {
	Schema  string   `json:"schema"`
	Table   string   `json:"table"`
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Ref returns the table reference of the snapshot
func (s Snapshot) Ref() TableRef {
	return TableRef{Schema: s.Schema, Table: s.Table}
}

// ColumnNames returns the column names in schema order
func (s Snapshot) ColumnNames() []string {
	return ColumnNames(s.Columns)
}

// PrimaryKey returns the primary key column name
func (s Snapshot) PrimaryKey() (string, error) {
	if len(s.Columns) == 0 {
		return "", fmt.Errorf("snapshot %s has no columns", s.Ref())
	}
	return s.Columns[0].Name, nil
}

// ColumnNames extracts the names of columns in order
func ColumnNames(columns []Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}

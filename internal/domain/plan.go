package domain

import (
	"fmt"
	"strings"
)

// SkipReason explains why a current row produced no statement
type SkipReason string

const (
	SkipReasonEmptyNewRow SkipReason = "new row has no data"
	SkipReasonUnmatched   SkipReason = "primary key matches no original row"
)

// FieldChange is one differing column of an updated row
type FieldChange struct {
	Column string `json:"column"`
	Old    any    `json:"old"`
	New    any    `json:"new"`
}

// RowInsert is a new row to insert with a server-generated key
type RowInsert struct {
	Index   int      `json:"index"`
	Columns []string `json:"columns"`
	Values  []any    `json:"values"`
}

// RowUpdate batches every changed column of one existing row
type RowUpdate struct {
	Index    int           `json:"index"`
	Key      any           `json:"key"`
	RecordID string        `json:"record_id"`
	Changes  []FieldChange `json:"changes"`
}

// Columns returns the changed column names in schema order
func (u RowUpdate) Columns() []string {
	cols := make([]string, len(u.Changes))
	for i, c := range u.Changes {
		cols[i] = c.Column
	}
	return cols
}

// Values returns the new values aligned with Columns
func (u RowUpdate) Values() []any {
	vals := make([]any, len(u.Changes))
	for i, c := range u.Changes {
		vals[i] = c.New
	}
	return vals
}

// RowDelete is an original row absent from the current snapshot
type RowDelete struct {
	Key       any    `json:"key"`
	KeyColumn string `json:"key_column"`
	RecordID  string `json:"record_id"`
	Original  Row    `json:"original"`
	// Columns lists the non-key columns present in the original row
	Columns []string `json:"columns"`
}

// SkippedRow is a current row that produces no database effect
type SkippedRow struct {
	Index  int        `json:"index"`
	Key    string     `json:"key,omitempty"`
	Reason SkipReason `json:"reason"`
}

// Plan is the minimal set of statements turning original into current
type Plan struct {
	PrimaryKey string       `json:"primary_key"`
	Inserts    []RowInsert  `json:"inserts"`
	Updates    []RowUpdate  `json:"updates"`
	Deletes    []RowDelete  `json:"deletes"`
	Skipped    []SkippedRow `json:"skipped"`
}

// BuildPlan diffs two snapshots of one table. columns must be in schema
// order; the first column is the primary key.
//
// A current row is new when it is flagged, or when its key is blank and it
// has no original counterpart. A non-new row whose key matches nothing in
// original is skipped. Rows flagged deleted count as absent from current.
// A key repeated within either snapshot is rejected.
func BuildPlan(columns []string, original, current []Row) (*Plan, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("cannot plan changes: %w", ErrInvalidRequest("no columns"))
	}
	pk := columns[0]
	nonKey := columns[1:]

	originals := make(map[string]Row, len(original))
	for _, row := range original {
		key, _ := row.Value(pk)
		keyStr := KeyString(key)
		if _, dup := originals[keyStr]; dup && !IsBlankKey(key) {
			return nil, fmt.Errorf("cannot plan changes: %w", ErrInvalidRequest(fmt.Sprintf("duplicate %s %s in original rows", pk, keyStr)))
		}
		originals[keyStr] = row
	}
	if err := checkDuplicateKeys(pk, current); err != nil {
		return nil, err
	}

	plan := &Plan{PrimaryKey: pk}
	present := make(map[string]struct{}, len(current))

	for i, row := range current {
		if row.IsDeleted {
			continue
		}
		key, _ := row.Value(pk)
		keyStr := KeyString(key)
		orig, matched := originals[keyStr]

		if row.IsNew || (!matched && IsBlankKey(key)) {
			ins := RowInsert{Index: i}
			for _, col := range nonKey {
				v, ok := row.Value(col)
				if !ok || IsEmptyValue(v) {
					continue
				}
				ins.Columns = append(ins.Columns, col)
				ins.Values = append(ins.Values, v)
			}
			if len(ins.Columns) == 0 {
				plan.Skipped = append(plan.Skipped, SkippedRow{Index: i, Reason: SkipReasonEmptyNewRow})
				continue
			}
			plan.Inserts = append(plan.Inserts, ins)
			continue
		}

		present[keyStr] = struct{}{}
		if !matched {
			plan.Skipped = append(plan.Skipped, SkippedRow{Index: i, Key: keyStr, Reason: SkipReasonUnmatched})
			continue
		}

		origKey, _ := orig.Value(pk)
		upd := RowUpdate{Index: i, Key: origKey, RecordID: keyStr}
		for _, col := range nonKey {
			newValue, ok := row.Value(col)
			if !ok {
				continue
			}
			oldValue, _ := orig.Value(col)
			if ValuesEqual(oldValue, newValue) {
				continue
			}
			upd.Changes = append(upd.Changes, FieldChange{Column: col, Old: oldValue, New: newValue})
		}
		if len(upd.Changes) > 0 {
			plan.Updates = append(plan.Updates, upd)
		}
	}

	for _, row := range original {
		key, _ := row.Value(pk)
		keyStr := KeyString(key)
		if _, ok := present[keyStr]; ok {
			continue
		}
		del := RowDelete{Key: key, KeyColumn: pk, RecordID: keyStr, Original: row}
		for _, col := range nonKey {
			if _, ok := row.Value(col); ok {
				del.Columns = append(del.Columns, col)
			}
		}
		plan.Deletes = append(plan.Deletes, del)
	}

	return plan, nil
}

// checkDuplicateKeys rejects two live existing rows with the same key
func checkDuplicateKeys(pk string, current []Row) error {
	seen := make(map[string]int, len(current))
	for i, row := range current {
		if row.IsDeleted || row.IsNew {
			continue
		}
		key, _ := row.Value(pk)
		if IsBlankKey(key) {
			continue
		}
		keyStr := KeyString(key)
		if first, dup := seen[keyStr]; dup {
			return fmt.Errorf("cannot plan changes: %w", ErrInvalidRequest(fmt.Sprintf("rows %d and %d share %s %s", first, i, pk, keyStr)))
		}
		seen[keyStr] = i
	}
	return nil
}

// ChangeCount is the number of changed (row, column) pairs across updates
func (p *Plan) ChangeCount() int {
	n := 0
	for _, u := range p.Updates {
		n += len(u.Changes)
	}
	return n
}

// IsEmpty reports whether the plan issues no statement
func (p *Plan) IsEmpty() bool {
	return len(p.Inserts) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

// InsertAudit builds the entries of an inserted row; recordID is the generated key
func (c AuditContext) InsertAudit(ins RowInsert, recordID string) []AuditEntry {
	entries := make([]AuditEntry, 0, len(ins.Columns))
	for i, col := range ins.Columns {
		entries = append(entries, c.entry(AuditActionInsert, recordID, col, nil, ins.Values[i]))
	}
	return entries
}

// UpdateAudit builds one entry per changed column
func (c AuditContext) UpdateAudit(upd RowUpdate) []AuditEntry {
	entries := make([]AuditEntry, 0, len(upd.Changes))
	for _, ch := range upd.Changes {
		entries = append(entries, c.entry(AuditActionUpdate, upd.RecordID, ch.Column, ch.Old, ch.New))
	}
	return entries
}

// DeleteAudit builds one entry per non-key column of the removed row.
// A row with no other columns is recorded against its key column.
func (c AuditContext) DeleteAudit(del RowDelete) []AuditEntry {
	if len(del.Columns) == 0 {
		return []AuditEntry{c.entry(AuditActionDelete, del.RecordID, del.KeyColumn, del.Key, nil)}
	}
	entries := make([]AuditEntry, 0, len(del.Columns))
	for _, col := range del.Columns {
		old, _ := del.Original.Value(col)
		entries = append(entries, c.entry(AuditActionDelete, del.RecordID, col, old, nil))
	}
	return entries
}

// Summarize renders the human-readable outcome of a reconciliation
func Summarize(inserted, changes, deleted int) string {
	var parts []string
	if inserted > 0 {
		parts = append(parts, fmt.Sprintf("%d new rows inserted", inserted))
	}
	if changes > 0 {
		parts = append(parts, fmt.Sprintf("%d changes made", changes))
	}
	if deleted > 0 {
		parts = append(parts, fmt.Sprintf("%d rows deleted", deleted))
	}
	if len(parts) == 0 {
		return "No changes detected"
	}
	return strings.Join(parts, " and ") + " - all logged"
}

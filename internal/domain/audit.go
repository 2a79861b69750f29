package domain

import "time"

// AuditTableName is the per-schema table holding the change log
const AuditTableName = "data_steward_audit"

// AuditAction represents the kind of change an audit entry records
type AuditAction string

const (
	AuditActionInsert AuditAction = "INSERT"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
)

// AuditEntry records one old -> new change of a single column of a single record
type AuditEntry struct {
	ID        int64       `json:"id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Actor     string      `json:"actor"`
	Table     string      `json:"table"`
	RecordID  string      `json:"record_id"`
	Column    string      `json:"column"`
	OldValue  *string     `json:"old_value"`
	NewValue  *string     `json:"new_value"`
	Action    AuditAction `json:"action"`
}

// AuditFilter narrows an audit history query
type AuditFilter struct {
	Table    string `json:"table,omitempty"`
	RecordID string `json:"record_id,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

const (
	DefaultAuditLimit = 100
	MaxAuditLimit     = 1000
)

// Normalize applies the default and maximum page size
func (f AuditFilter) Normalize() AuditFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultAuditLimit
	}
	if f.Limit > MaxAuditLimit {
		f.Limit = MaxAuditLimit
	}
	return f
}

// AuditContext carries who and when for the entries of one reconciliation
type AuditContext struct {
	Table string
	Actor string
	At    time.Time
}

func (c AuditContext) entry(action AuditAction, recordID, column string, oldValue, newValue any) AuditEntry {
	return AuditEntry{
		Timestamp: c.At,
		Actor:     c.Actor,
		Table:     c.Table,
		RecordID:  recordID,
		Column:    column,
		OldValue:  valuePtr(oldValue),
		NewValue:  valuePtr(newValue),
		Action:    action,
	}
}

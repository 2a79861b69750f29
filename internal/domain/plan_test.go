package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rows(data ...map[string]any) []Row {
	out := make([]Row, len(data))
	for i, d := range data {
		out[i] = NewRow(d)
	}
	return out
}

func TestBuildPlan_UpdateScenario(t *testing.T) {
	original := rows(map[string]any{"id": 1, "status": "A"})
	current := rows(map[string]any{"id": 1, "status": "B"})

	plan, err := BuildPlan([]string{"id", "status"}, original, current)
	require.NoError(t, err)

	require.Len(t, plan.Updates, 1)
	assert.Empty(t, plan.Inserts)
	assert.Empty(t, plan.Deletes)
	assert.Equal(t, 1, plan.ChangeCount())

	upd := plan.Updates[0]
	assert.Equal(t, "1", upd.RecordID)
	assert.Equal(t, []string{"status"}, upd.Columns())
	assert.Equal(t, []any{"B"}, upd.Values())

	audit := AuditContext{Table: "orders", Actor: "alice", At: time.Now()}.UpdateAudit(upd)
	require.Len(t, audit, 1)
	assert.Equal(t, AuditActionUpdate, audit[0].Action)
	require.NotNil(t, audit[0].OldValue)
	require.NotNil(t, audit[0].NewValue)
	assert.Equal(t, "A", *audit[0].OldValue)
	assert.Equal(t, "B", *audit[0].NewValue)

	assert.Equal(t, "1 changes made - all logged", Summarize(0, plan.ChangeCount(), 0))
}

func TestBuildPlan_InsertScenario(t *testing.T) {
	original := rows(map[string]any{"id": 1, "x": "a"})
	current := []Row{
		NewRow(map[string]any{"id": 1, "x": "a"}),
		{Data: map[string]any{"id": "", "x": "b"}, IsNew: true},
	}

	plan, err := BuildPlan([]string{"id", "x"}, original, current)
	require.NoError(t, err)

	require.Len(t, plan.Inserts, 1)
	assert.Empty(t, plan.Updates)
	assert.Empty(t, plan.Deletes)
	assert.Equal(t, 1, plan.Inserts[0].Index)
	assert.Equal(t, []string{"x"}, plan.Inserts[0].Columns)
	assert.Equal(t, []any{"b"}, plan.Inserts[0].Values)

	audit := AuditContext{Table: "t", Actor: "a"}.InsertAudit(plan.Inserts[0], "2")
	require.Len(t, audit, 1)
	assert.Nil(t, audit[0].OldValue)
	assert.Equal(t, "2", audit[0].RecordID)
	assert.Equal(t, AuditActionInsert, audit[0].Action)

	assert.Equal(t, "1 new rows inserted - all logged", Summarize(len(plan.Inserts), 0, 0))
}

func TestBuildPlan_DeleteScenario(t *testing.T) {
	original := rows(map[string]any{"id": 1}, map[string]any{"id": 2})
	current := rows(map[string]any{"id": 1})

	plan, err := BuildPlan([]string{"id"}, original, current)
	require.NoError(t, err)

	require.Len(t, plan.Deletes, 1)
	assert.Equal(t, "2", plan.Deletes[0].RecordID)
	assert.Equal(t, 2, plan.Deletes[0].Key)
	assert.Empty(t, plan.Updates)
	assert.Empty(t, plan.Inserts)
}

func TestBuildPlan_DeleteAuditsEveryNonKeyColumn(t *testing.T) {
	original := rows(map[string]any{"id": 7, "name": "bolt", "qty": 3, "note": nil})

	plan, err := BuildPlan([]string{"id", "name", "qty", "note"}, original, nil)
	require.NoError(t, err)
	require.Len(t, plan.Deletes, 1)

	audit := AuditContext{Table: "parts"}.DeleteAudit(plan.Deletes[0])
	require.Len(t, audit, 3)
	for _, e := range audit {
		assert.Equal(t, AuditActionDelete, e.Action)
		assert.Equal(t, "7", e.RecordID)
		assert.Nil(t, e.NewValue)
	}
	assert.Equal(t, "bolt", *audit[0].OldValue)
	assert.Equal(t, "3", *audit[1].OldValue)
	assert.Nil(t, audit[2].OldValue)
}

func TestBuildPlan_NoChanges(t *testing.T) {
	original := rows(
		map[string]any{"id": 1, "qty": 5, "name": "a"},
		map[string]any{"id": 2, "qty": 6, "name": "b"},
	)
	current := []Row{
		NewRow(map[string]any{"id": "1", "qty": "5", "name": "a"}),
		NewRow(map[string]any{"id": 2.0, "qty": 6.0, "name": "b"}),
	}

	plan, err := BuildPlan([]string{"id", "qty", "name"}, original, current)
	require.NoError(t, err)

	assert.True(t, plan.IsEmpty())
	assert.Equal(t, "No changes detected", Summarize(0, plan.ChangeCount(), 0))
}

func TestBuildPlan_BatchesChangedColumnsIntoOneUpdate(t *testing.T) {
	original := rows(map[string]any{"id": 1, "a": "x", "b": "y", "c": "z"})
	current := rows(map[string]any{"id": 1, "a": "x2", "b": "y", "c": nil})

	plan, err := BuildPlan([]string{"id", "a", "b", "c"}, original, current)
	require.NoError(t, err)

	require.Len(t, plan.Updates, 1)
	assert.Equal(t, []string{"a", "c"}, plan.Updates[0].Columns())
	assert.Equal(t, 2, plan.ChangeCount())

	audit := AuditContext{}.UpdateAudit(plan.Updates[0])
	require.Len(t, audit, 2)
	assert.Nil(t, audit[1].NewValue)
	assert.Equal(t, "z", *audit[1].OldValue)
}

func TestBuildPlan_NewRowWithoutData(t *testing.T) {
	current := []Row{
		{Data: map[string]any{"id": nil, "name": "", "qty": nil}, IsNew: true},
	}

	plan, err := BuildPlan([]string{"id", "name", "qty"}, nil, current)
	require.NoError(t, err)

	assert.True(t, plan.IsEmpty())
	require.Len(t, plan.Skipped, 1)
	assert.Equal(t, SkipReasonEmptyNewRow, plan.Skipped[0].Reason)
}

func TestBuildPlan_Classification(t *testing.T) {
	original := rows(map[string]any{"id": 1, "name": "a"})

	tests := []struct {
		name        string
		row         Row
		wantInserts int
		wantSkipped int
		wantDeletes int
	}{
		{
			name:        "blank key without counterpart is new",
			row:         NewRow(map[string]any{"id": "  ", "name": "b"}),
			wantInserts: 1,
			wantDeletes: 1,
		},
		{
			name:        "nil key without counterpart is new",
			row:         NewRow(map[string]any{"id": nil, "name": "b"}),
			wantInserts: 1,
			wantDeletes: 1,
		},
		{
			name:        "unmatched key is skipped",
			row:         NewRow(map[string]any{"id": 99, "name": "b"}),
			wantSkipped: 1,
			wantDeletes: 1,
		},
		{
			name:        "flagged row is new even with a matching key",
			row:         Row{Data: map[string]any{"id": 1, "name": "copy"}, IsNew: true},
			wantInserts: 1,
			wantDeletes: 1,
		},
		{
			name:        "row flagged deleted counts as absent",
			row:         Row{Data: map[string]any{"id": 1, "name": "a"}, IsDeleted: true},
			wantDeletes: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := BuildPlan([]string{"id", "name"}, original, []Row{tt.row})
			require.NoError(t, err)
			assert.Len(t, plan.Inserts, tt.wantInserts)
			assert.Len(t, plan.Skipped, tt.wantSkipped)
			assert.Len(t, plan.Deletes, tt.wantDeletes)
			assert.Empty(t, plan.Updates)
		})
	}
}

func TestBuildPlan_UpdateUsesOriginalKey(t *testing.T) {
	original := rows(map[string]any{"id": int64(5), "name": "a"})
	current := rows(map[string]any{"id": "5", "name": "b"})

	plan, err := BuildPlan([]string{"id", "name"}, original, current)
	require.NoError(t, err)

	require.Len(t, plan.Updates, 1)
	assert.Equal(t, int64(5), plan.Updates[0].Key)
}

func TestBuildPlan_RejectsDuplicateKeys(t *testing.T) {
	tests := []struct {
		name     string
		original []Row
		current  []Row
		wantErr  string
	}{
		{
			name:     "same key twice in current",
			original: rows(map[string]any{"id": 1, "s": "A"}),
			current:  rows(map[string]any{"id": 1, "s": "B"}, map[string]any{"id": "1", "s": "C"}),
			wantErr:  "rows 0 and 1 share id 1",
		},
		{
			name:     "same key twice in original",
			original: rows(map[string]any{"id": 3, "s": "A"}, map[string]any{"id": 3, "s": "B"}),
			current:  rows(map[string]any{"id": 3, "s": "A"}),
			wantErr:  "duplicate id 3 in original rows",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := BuildPlan([]string{"id", "s"}, tt.original, tt.current)
			require.Error(t, err)
			assert.Nil(t, plan)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildPlan_RepeatedKeyOutsideLiveRowsIsAllowed(t *testing.T) {
	original := rows(map[string]any{"id": 1, "s": "A"})
	current := []Row{
		{Data: map[string]any{"id": 1, "s": "A"}, IsDeleted: true},
		NewRow(map[string]any{"id": 1, "s": "B"}),
		{Data: map[string]any{"id": 1, "s": "copy"}, IsNew: true},
		NewRow(map[string]any{"id": "", "s": "x"}),
		NewRow(map[string]any{"id": nil, "s": "y"}),
	}

	plan, err := BuildPlan([]string{"id", "s"}, original, current)
	require.NoError(t, err)
	assert.Len(t, plan.Updates, 1)
	assert.Len(t, plan.Inserts, 3)
	assert.Empty(t, plan.Deletes)
}

func TestBuildPlan_RequiresColumns(t *testing.T) {
	_, err := BuildPlan(nil, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		inserted, changes, deleted int
		want                       string
	}{
		{0, 0, 0, "No changes detected"},
		{2, 0, 0, "2 new rows inserted - all logged"},
		{0, 0, 3, "3 rows deleted - all logged"},
		{1, 4, 2, "1 new rows inserted and 4 changes made and 2 rows deleted - all logged"},
		{0, 1, 1, "1 changes made and 1 rows deleted - all logged"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Summarize(tt.inserted, tt.changes, tt.deleted))
	}
}

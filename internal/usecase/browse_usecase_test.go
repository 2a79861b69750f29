package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/datasteward/steward/internal/domain"
	"github.com/datasteward/steward/internal/infra/logger"
)

func TestBrowse_ListTablesAddsLabels(t *testing.T) {
	ctx := context.Background()
	store := new(MockTableStore)
	store.On("ListTables", ctx, "public").Return([]domain.TableInfo{
		{Name: "customer_orders", Type: "BASE TABLE"},
		{Name: domain.AuditTableName, Type: "BASE TABLE"},
	}, nil)

	uc := NewBrowseUseCase(store, new(MockSessionStore), logger.Discard())
	tables, err := uc.ListTables(ctx, "public")

	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "Customer Orders", tables[0].Label)
	assert.Equal(t, "📋 Data Steward Audit", tables[1].Label)
}

func TestBrowse_LoadTable(t *testing.T) {
	ctx := context.Background()
	store := new(MockTableStore)
	rows := []domain.Row{domain.NewRow(map[string]any{"id": int64(1), "status": "A"})}
	store.On("Columns", ctx, ordersRef).Return(ordersColumns, nil)
	store.On("LoadRows", ctx, ordersRef, ordersColumns).Return(rows, nil)

	uc := NewBrowseUseCase(store, new(MockSessionStore), logger.Discard())
	snap, err := uc.LoadTable(ctx, ordersRef)

	require.NoError(t, err)
	assert.Equal(t, ordersRef, snap.Ref())
	assert.Equal(t, rows, snap.Rows)
	pk, err := snap.PrimaryKey()
	require.NoError(t, err)
	assert.Equal(t, "id", pk)
}

func TestBrowse_LoadTableNotFound(t *testing.T) {
	ctx := context.Background()
	store := new(MockTableStore)
	store.On("Columns", ctx, ordersRef).Return([]domain.Column{}, nil)

	uc := NewBrowseUseCase(store, new(MockSessionStore), logger.Discard())
	_, err := uc.LoadTable(ctx, ordersRef)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	store.AssertNotCalled(t, "LoadRows", mock.Anything, mock.Anything, mock.Anything)
}

func TestBrowse_OpenSession(t *testing.T) {
	ctx := context.Background()
	store := new(MockTableStore)
	sessions := new(MockSessionStore)
	rows := []domain.Row{domain.NewRow(map[string]any{"id": int64(1), "status": "A"})}

	store.On("Columns", ctx, ordersRef).Return(ordersColumns, nil)
	store.On("LoadRows", ctx, ordersRef, ordersColumns).Return(rows, nil)
	sessions.On("Save", ctx, mock.MatchedBy(func(s *domain.EditSession) bool {
		return s.ID != "" && s.Actor == "alice" && s.Ref() == ordersRef && len(s.Original.Rows) == 1
	})).Return(nil)

	uc := NewBrowseUseCase(store, sessions, logger.Discard())
	session, err := uc.OpenSession(ctx, ordersRef, "alice")

	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	sessions.AssertExpectations(t)
}

func TestBrowse_OpenSessionOnAuditTable(t *testing.T) {
	store := new(MockTableStore)
	uc := NewBrowseUseCase(store, new(MockSessionStore), logger.Discard())

	_, err := uc.OpenSession(context.Background(), domain.TableRef{Schema: "public", Table: domain.AuditTableName}, "alice")
	assert.ErrorIs(t, err, domain.ErrAuditReadOnly)
}

func TestBrowse_DiscardSession(t *testing.T) {
	ctx := context.Background()
	sessions := new(MockSessionStore)
	sessions.On("Get", ctx, "s1").Return(&domain.EditSession{ID: "s1"}, nil)
	sessions.On("Delete", ctx, "s1").Return(nil)
	sessions.On("Get", ctx, "missing").Return(nil, domain.ErrSessionNotFound("missing"))

	uc := NewBrowseUseCase(new(MockTableStore), sessions, logger.Discard())

	require.NoError(t, uc.DiscardSession(ctx, "s1"))
	assert.ErrorIs(t, uc.DiscardSession(ctx, "missing"), domain.ErrSessionMissing)
	sessions.AssertNumberOfCalls(t, "Delete", 1)
}

func TestBrowse_AuditHistoryNormalizesFilter(t *testing.T) {
	ctx := context.Background()
	store := new(MockTableStore)
	entries := []domain.AuditEntry{{ID: 2, Table: "orders"}, {ID: 1, Table: "orders"}}

	store.On("EnsureAuditTable", ctx, "public").Return(nil)
	store.On("ListAudit", ctx, "public", domain.AuditFilter{Table: "orders", Limit: domain.MaxAuditLimit}).Return(entries, nil)

	uc := NewBrowseUseCase(store, new(MockSessionStore), logger.Discard())
	got, err := uc.AuditHistory(ctx, "public", domain.AuditFilter{Table: "orders", Limit: 5000})

	require.NoError(t, err)
	assert.Equal(t, entries, got)
	store.AssertExpectations(t)
}

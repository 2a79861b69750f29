package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/datasteward/steward/internal/domain"
	"github.com/datasteward/steward/internal/ports"
)

// MockTableStore is a mock implementation of ports.TableStore
type MockTableStore struct {
	mock.Mock
}

func (m *MockTableStore) ListSchemas(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTableStore) ListTables(ctx context.Context, schema string) ([]domain.TableInfo, error) {
	args := m.Called(ctx, schema)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TableInfo), args.Error(1)
}

func (m *MockTableStore) Columns(ctx context.Context, ref domain.TableRef) ([]domain.Column, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Column), args.Error(1)
}

func (m *MockTableStore) LoadRows(ctx context.Context, ref domain.TableRef, columns []domain.Column) ([]domain.Row, error) {
	args := m.Called(ctx, ref, columns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Row), args.Error(1)
}

func (m *MockTableStore) EnsureAuditTable(ctx context.Context, schema string) error {
	args := m.Called(ctx, schema)
	return args.Error(0)
}

func (m *MockTableStore) ListAudit(ctx context.Context, schema string, filter domain.AuditFilter) ([]domain.AuditEntry, error) {
	args := m.Called(ctx, schema, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditEntry), args.Error(1)
}

func (m *MockTableStore) Begin(ctx context.Context) (ports.TableTx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ports.TableTx), args.Error(1)
}

// Acquire binds nothing; the mock is its own pool-bound view
func (m *MockTableStore) Acquire(ctx context.Context) (ports.TableStore, func(), error) {
	return m, func() {}, nil
}

// MockTableTx is a mock implementation of ports.TableTx
type MockTableTx struct {
	mock.Mock
}

func (m *MockTableTx) Insert(ctx context.Context, ref domain.TableRef, pk string, columns []string, values []any) (any, error) {
	args := m.Called(ctx, ref, pk, columns, values)
	return args.Get(0), args.Error(1)
}

func (m *MockTableTx) Update(ctx context.Context, ref domain.TableRef, pk string, key any, columns []string, values []any) error {
	args := m.Called(ctx, ref, pk, key, columns, values)
	return args.Error(0)
}

func (m *MockTableTx) Delete(ctx context.Context, ref domain.TableRef, pk string, key any) error {
	args := m.Called(ctx, ref, pk, key)
	return args.Error(0)
}

func (m *MockTableTx) AppendAudit(ctx context.Context, schema string, entries []domain.AuditEntry) error {
	args := m.Called(ctx, schema, entries)
	return args.Error(0)
}

func (m *MockTableTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTableTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockSessionStore is a mock implementation of ports.SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Save(ctx context.Context, session *domain.EditSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionStore) Get(ctx context.Context, id string) (*domain.EditSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EditSession), args.Error(1)
}

func (m *MockSessionStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datasteward/steward/internal/domain"
	"github.com/datasteward/steward/internal/infra/logger"
)

func newSession() *domain.EditSession {
	return domain.NewEditSession("alice", domain.Snapshot{
		Schema:  "public",
		Table:   "orders",
		Columns: []domain.Column{{Name: "id"}, {Name: "status"}},
		Rows:    []domain.Row{domain.NewRow(map[string]any{"id": int64(1), "status": "A"})},
	})
}

func TestMemoryStore_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	session := newSession()

	require.NoError(t, store.Save(ctx, session))

	got, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, session.Ref(), got.Ref())
	assert.Len(t, got.Original.Rows, 1)

	require.NoError(t, store.Delete(ctx, session.ID))
	_, err = store.Get(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionMissing)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore(30 * time.Minute)
	store.now = func() time.Time { return clock }

	session := newSession()
	require.NoError(t, store.Save(ctx, session))
	assert.Equal(t, 1, store.Len())

	clock = clock.Add(29 * time.Minute)
	_, err := store.Get(ctx, session.ID)
	require.NoError(t, err)

	clock = clock.Add(time.Minute)
	_, err = store.Get(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionMissing)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_RejectsMissingID(t *testing.T) {
	store := NewMemoryStore(0)
	err := store.Save(context.Background(), &domain.EditSession{})
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestNewStore(t *testing.T) {
	store, err := NewStore(Config{Enabled: false, TTL: time.Minute}, logger.Discard())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = NewStore(Config{Enabled: true, RedisURL: "not-a-url"}, logger.Discard())
	assert.Error(t, err)
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "steward:session:abc", sessionKey("abc"))
}

package snapshot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 5, 8, 0, 0, 0, time.UTC)
	state := model.NewAppState()
	state.Suppliers = []model.Supplier{{ID: "sup-1", Name: "ACME", ModifiedAt: now}}
	state.Orders = []model.Order{{
		ID:         "ord-1",
		OrderID:    "0506_ACME_CV2_001",
		Store:      model.StoreCV2,
		SupplierID: "sup-1",
		Items:      []model.OrderItem{{ItemID: "item-1", Name: "Onions", Quantity: 2.5, Unit: "kg"}},
		Status:     model.StatusDispatching,
		CreatedAt:  now,
		ModifiedAt: now,
	}}
	state.Counters = model.CounterTable{"0506_ACME_CV2": 1}
	state.FeedFingerprint = "abc123"

	require.NoError(t, store.Save(ctx, state))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
}

func TestStore_SaveReplacesPriorSnapshot(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := model.NewAppState()
	first.FeedFingerprint = "first"
	require.NoError(t, store.Save(ctx, first))

	second := model.NewAppState()
	second.FeedFingerprint = "second"
	require.NoError(t, store.Save(ctx, second))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", loaded.FeedFingerprint, "single-record store keeps only the latest state")
}

func TestStore_LoadEmptyReturnsErrNoSnapshot(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestStore_LoadOrInitFallsBackToEmptyState(t *testing.T) {
	store := openTestStore(t)

	state, err := store.LoadOrInit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.NewAppState(), state)
}

func TestStore_LoadFillsMissingCollections(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	// A sparse snapshot written by hand or by an older version.
	_, err := store.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, payload, saved_at) VALUES (?, ?, ?)
	`, stateKey, `{"settings": {"defaultStore": "CV1"}}`, "2025-06-05T08:00:00Z")
	require.NoError(t, err)

	state, err := store.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, state.Items)
	assert.NotNil(t, state.Suppliers)
	assert.NotNil(t, state.Orders)
	assert.NotNil(t, state.Counters)
	assert.Equal(t, model.StoreCV1, state.Settings.DefaultStore)
}

func TestStore_LoadMigratesLegacyOrderFields(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	payload := `{"orders": [{"id": "ord-1", "status": "DISPATCHING", "items": [], "lastUpdate": "2024-11-02T09:30:00Z"}]}`
	_, err := store.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, payload, saved_at) VALUES (?, ?, ?)
	`, stateKey, payload, "2025-06-05T08:00:00Z")
	require.NoError(t, err)

	state, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, state.Orders, 1)
	assert.Equal(t, time.Date(2024, 11, 2, 9, 30, 0, 0, time.UTC), state.Orders[0].ModifiedAt)
}

func TestStore_OpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Save(context.Background(), model.NewAppState()))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	_, err = second.Load(context.Background())
	assert.NoError(t, err, "reopening must not disturb the saved snapshot")
}

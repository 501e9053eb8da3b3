package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
)

func resolveState() *model.AppState {
	now := time.Date(2025, 6, 5, 8, 0, 0, 0, time.UTC)
	state := model.NewAppState()
	state.Suppliers = []model.Supplier{
		{ID: "sup-acme", Name: "ACME", ModifiedAt: now},
		{ID: "sup-misc", Name: "Misc", ModifiedAt: now},
	}
	state.Items = []model.Item{
		{ID: "item-onion", Name: "Onions", Unit: "kg", SupplierID: "sup-acme", SupplierName: "ACME", CreatedAt: now, ModifiedAt: now},
	}
	state.Settings.CatchAllSupplier = "sup-misc"
	return state
}

func TestResolve_MatchedItemRoutesToItsSupplier(t *testing.T) {
	res := Resolve(resolveState(), model.StoreCV2, []Line{
		{Quantity: 2, MatchedItemID: "item-onion"},
	})

	assert.Equal(t, 1, res.Resolved)
	assert.Zero(t, res.Dropped)
	require.Len(t, res.Action.Lines, 1)
	ln := res.Action.Lines[0]
	assert.Equal(t, "sup-acme", ln.SupplierID)
	assert.Equal(t, "item-onion", ln.Item.ItemID)
	assert.Equal(t, "Onions", ln.Item.Name)
	assert.Equal(t, 2.0, ln.Item.Quantity)
}

func TestResolve_UnitOverrideOnlyWhenDifferent(t *testing.T) {
	res := Resolve(resolveState(), model.StoreCV2, []Line{
		{Quantity: 1, Unit: "kg", MatchedItemID: "item-onion"},
		{Quantity: 1, Unit: "box", MatchedItemID: "item-onion"},
	})

	require.Len(t, res.Action.Lines, 2)
	assert.Empty(t, res.Action.Lines[0].Item.Unit, "matching the master unit means no override")
	assert.Equal(t, "box", res.Action.Lines[1].Item.Unit)
}

func TestResolve_NormalizedNameFallback(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"case difference", "ONIONS"},
		{"extra whitespace", "  onions  "},
		{"mixed", "OnIoNs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(resolveState(), model.StoreCV2, []Line{
				{Quantity: 3, NewItemName: tt.input},
			})
			require.Len(t, res.Action.Lines, 1)
			assert.Equal(t, "item-onion", res.Action.Lines[0].Item.ItemID,
				"normalized name must hit the existing master item")
			assert.Equal(t, "sup-acme", res.Action.Lines[0].SupplierID)
		})
	}
}

func TestResolve_UnknownNameGoesToCatchAll(t *testing.T) {
	res := Resolve(resolveState(), model.StoreCV2, []Line{
		{Quantity: 5, Unit: "pcs", NewItemName: "Mystery Sauce"},
	})

	require.Len(t, res.Action.Lines, 1)
	ln := res.Action.Lines[0]
	assert.Equal(t, "sup-misc", ln.SupplierID)
	assert.True(t, IsSyntheticID(ln.Item.ItemID), "new items carry a synthetic id until persisted")
	assert.Equal(t, "Mystery Sauce", ln.Item.Name)
	assert.Equal(t, "pcs", ln.Item.Unit)
}

func TestResolve_NoCatchAllDropsUnknownLines(t *testing.T) {
	state := resolveState()
	state.Settings.CatchAllSupplier = ""

	res := Resolve(state, model.StoreCV2, []Line{
		{Quantity: 5, NewItemName: "Mystery Sauce"},
		{Quantity: 2, MatchedItemID: "item-onion"},
	})

	assert.Equal(t, 1, res.Resolved)
	assert.Equal(t, 1, res.Dropped)
}

func TestResolve_UnknownCatchAllIsIgnored(t *testing.T) {
	state := resolveState()
	state.Settings.CatchAllSupplier = "sup-ghost"

	res := Resolve(state, model.StoreCV2, []Line{
		{Quantity: 5, NewItemName: "Mystery Sauce"},
	})
	assert.Zero(t, res.Resolved)
	assert.Equal(t, 1, res.Dropped)
}

func TestResolve_StaleMatchedIDIsDropped(t *testing.T) {
	res := Resolve(resolveState(), model.StoreCV2, []Line{
		{Quantity: 1, MatchedItemID: "item-deleted"},
	})
	assert.Zero(t, res.Resolved)
	assert.Equal(t, 1, res.Dropped)
}

func TestResolve_EmptyBatch(t *testing.T) {
	res := Resolve(resolveState(), model.StoreCV2, nil)
	assert.Zero(t, res.Resolved)
	assert.Zero(t, res.Dropped)
	assert.Empty(t, res.Action.Lines)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "onions", NormalizeName("ONIONS"))
	assert.Equal(t, "red onions", NormalizeName("  red   onions  "))
	assert.Equal(t, "", NormalizeName("   "))

	// Composed U+00E9 and decomposed e + U+0301 must compare equal.
	assert.Equal(t, NormalizeName("caf\u00e9"), NormalizeName("cafe\u0301"))
}

func TestIsSyntheticID(t *testing.T) {
	assert.True(t, IsSyntheticID("new:mystery sauce-0"))
	assert.False(t, IsSyntheticID("item-onion"))
}

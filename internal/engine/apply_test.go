package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/testutil"
)

var testStart = time.Date(2025, 6, 5, 8, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	return New(testutil.NewFixedClock(testStart), testutil.NewSequenceIDs("ord"))
}

func baseState() *model.AppState {
	state := model.NewAppState()
	state.Suppliers = []model.Supplier{
		{ID: "sup-acme", Name: "ACME", ModifiedAt: testStart},
		{ID: "sup-farm", Name: "Farm", ModifiedAt: testStart},
	}
	state.Items = []model.Item{
		{ID: "item-onion", Name: "Onions", Unit: "kg", SupplierID: "sup-acme", SupplierName: "ACME", CreatedAt: testStart, ModifiedAt: testStart},
		{ID: "item-milk", Name: "Milk", Unit: "l", SupplierID: "sup-farm", SupplierName: "Farm", CreatedAt: testStart, ModifiedAt: testStart},
	}
	return state
}

// createOrder is a test helper dispatching CreateOrder and returning the
// new order's internal id.
func createOrder(t *testing.T, e *Engine, state *model.AppState, store model.StoreName, supplierID string) (*model.AppState, string) {
	t.Helper()
	next, events := e.Apply(state, CreateOrder{Store: store, SupplierID: supplierID})
	require.Len(t, events, 1)
	require.Equal(t, EventOrderCreated, events[0].Kind)
	return next, events[0].OrderID
}

func TestApply_CreateOrder(t *testing.T) {
	e := newTestEngine()
	state, id := createOrder(t, e, baseState(), model.StoreCV2, "sup-acme")

	o := state.FindOrder(id)
	require.NotNil(t, o)
	assert.Equal(t, "0506_ACME_CV2_001", o.OrderID)
	assert.Equal(t, model.StatusDispatching, o.Status)
	assert.False(t, o.IsSent)
	assert.False(t, o.IsReceived)
	assert.Empty(t, o.Items)
	assert.Nil(t, o.CompletedAt)
	assert.Equal(t, 1, state.Counters["0506_ACME_CV2"])
}

func TestApply_CreateOrder_SequentialIDs(t *testing.T) {
	// Scenario from the id contract: same (date, supplier, store) twice.
	e := newTestEngine()
	state, first := createOrder(t, e, baseState(), model.StoreCV2, "sup-acme")
	state, second := createOrder(t, e, state, model.StoreCV2, "sup-acme")

	assert.Equal(t, "0506_ACME_CV2_001", state.FindOrder(first).OrderID)
	assert.Equal(t, "0506_ACME_CV2_002", state.FindOrder(second).OrderID)
}

func TestApply_CreateOrder_UnknownSupplierIsNoop(t *testing.T) {
	e := newTestEngine()
	before := baseState()

	after, events := e.Apply(before, CreateOrder{Store: model.StoreCV2, SupplierID: "sup-ghost"})
	assert.Same(t, before, after, "noop must return the input state")
	require.Len(t, events, 1)
	assert.Equal(t, EventNoop, events[0].Kind)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	e := newTestEngine()
	state, id := createOrder(t, e, baseState(), model.StoreCV2, "sup-acme")
	before := state.Clone()

	_, _ = e.Apply(state, AddOrderItem{OrderID: id, Item: model.OrderItem{ItemID: "item-onion", Name: "Onions", Quantity: 2}})
	assert.Equal(t, before, state, "Apply must never mutate its input")
}

func TestApply_AddOrderItem_MergesByKey(t *testing.T) {
	e := newTestEngine()
	state, id := createOrder(t, e, baseState(), model.StoreCV2, "sup-acme")

	state, _ = e.Apply(state, AddOrderItem{OrderID: id, Item: model.OrderItem{ItemID: "item-onion", Name: "Onions", Quantity: 2}})
	state, _ = e.Apply(state, AddOrderItem{OrderID: id, Item: model.OrderItem{ItemID: "item-onion", Name: "Onions", Quantity: 3}})

	o := state.FindOrder(id)
	require.Len(t, o.Items, 1, "duplicate itemId must merge, never append")
	assert.Equal(t, 5.0, o.Items[0].Quantity)
}

func TestApply_AddOrderItem_PreservesInsertionOrder(t *testing.T) {
	e := newTestEngine()
	state, id := createOrder(t, e, baseState(), model.StoreCV2, "sup-acme")

	state, _ = e.Apply(state, AddOrderItem{OrderID: id, Item: model.OrderItem{ItemID: "item-onion", Quantity: 1}})
	state, _ = e.Apply(state, AddOrderItem{OrderID: id, Item: model.OrderItem{ItemID: "item-milk", Quantity: 1}})
	state, _ = e.Apply(state, AddOrderItem{OrderID: id, Item: model.OrderItem{ItemID: "item-onion", Quantity: 1}})

	o := state.FindOrder(id)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "item-onion", o.Items[0].ItemID)
	assert.Equal(t, "item-milk", o.Items[1].ItemID)
}

func TestApply_UpdateOrderItem(t *testing.T) {
	e := newTestEngine()
	state, id := createOrder(t, e, baseState(), model.StoreCV2, "sup-acme")
	state, _ = e.Apply(state, AddOrderItem{OrderID: id, Item: model.OrderItem{ItemID: "item-onion", Quantity: 2, Unit: "kg"}})

	qty := 7.5
	unit := "box"
	state, events := e.Apply(state, UpdateOrderItem{OrderID: id, ItemID: "item-onion", Quantity: &qty, Unit: &unit})

	require.Equal(t, EventItemUpdated, events[0].Kind)
	line := state.FindOrder(id).FindItem("item-onion")
	assert.Equal(t, 7.5, line.Quantity)
	assert.Equal(t, "box", line.Unit)
}

func TestApply_UpdateOrderItem_PartialUpdateKeepsOtherField(t *testing.T) {
	e := newTestEngine()
	state, id := createOrder(t, e, baseState(), model.StoreCV2, "sup-acme")
	state, _ = e.Apply(state, AddOrderItem{OrderID: id, Item: model.OrderItem{ItemID: "item-onion", Quantity: 2, Unit: "kg"}})

	qty := 4.0
	state, _ = e.Apply(state, UpdateOrderItem{OrderID: id, ItemID: "item-onion", Quantity: &qty})

	line := state.FindOrder(id).FindItem("item-onion")
	assert.Equal(t, 4.0, line.Quantity)
	assert.Equal(t, "kg", line.Unit)
}

func TestApply_NegativeQuantityIsRefused(t *testing.T) {
	e := newTestEngine()
	before, id := createOrder(t, e, baseState(), model.StoreCV2, "sup-acme")

	after, events := e.Apply(before, AddOrderItem{OrderID: id, Item: model.OrderItem{ItemID: "item-onion", Quantity: -2}})
	assert.Same(t, before, after, "negative add must not change state")
	require.Len(t, events, 1)
	assert.Equal(t, EventNoop, events[0].Kind)

	state, _ := e.Apply(before, AddOrderItem{OrderID: id, Item: model.OrderItem{ItemID: "item-onion", Quantity: 2}})
	qty := -1.0
	after, events = e.Apply(state, UpdateOrderItem{OrderID: id, ItemID: "item-onion", Quantity: &qty})
	assert.Same(t, state, after, "negative update must not change state")
	assert.Equal(t, EventNoop, events[0].Kind)
	assert.Equal(t, 2.0, state.FindOrder(id).FindItem("item-onion").Quantity)
}

func TestApply_ImportItems_SkipsNegativeLines(t *testing.T) {
	e := newTestEngine()
	state, events := e.Apply(baseState(), ImportItems{Store: model.StoreCV2, Lines: []ImportLine{
		{SupplierID: "sup-acme", Item: model.OrderItem{ItemID: "item-onion", Name: "Onions", Quantity: -3}},
		{SupplierID: "sup-acme", Item: model.OrderItem{ItemID: "item-onion", Name: "Onions", Quantity: 2}},
	}})

	require.Len(t, state.Orders, 1)
	require.Len(t, state.Orders[0].Items, 1)
	assert.Equal(t, 2.0, state.Orders[0].Items[0].Quantity, "negative line skipped, valid line applied")

	kinds := make([]EventKind, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind
	}
	assert.Equal(t, []EventKind{EventOrderCreated, EventItemAdded}, kinds)
}

func TestApply_UpdateOrderItem_MissingLineIsNoop(t *testing.T) {
	e := newTestEngine()
	before, id := createOrder(t, e, baseState(), model.StoreCV2, "sup-acme")

	qty := 1.0
	after, events := e.Apply(before, UpdateOrderItem{OrderID: id, ItemID: "item-ghost", Quantity: &qty})
	assert.Same(t, before, after)
	assert.Equal(t, EventNoop, events[0].Kind)
}

func TestApply_DeleteOrderItem(t *testing.T) {
	e := newTestEngine()
	state, id := createOrder(t, e, baseState(), model.StoreCV2, "sup-acme")
	state, _ = e.Apply(state, AddOrderItem{OrderID: id, Item: model.OrderItem{ItemID: "item-onion", Quantity: 2}})

	state, events := e.Apply(state, DeleteOrderItem{OrderID: id, ItemID: "item-onion"})
	require.Equal(t, EventItemDeleted, events[0].Kind)
	assert.Empty(t, state.FindOrder(id).Items)
}

func TestApply_DeleteOrderItem_MissingLineIsNoop(t *testing.T) {
	e := newTestEngine()
	before, id := createOrder(t, e, baseState(), model.StoreCV2, "sup-acme")

	after, events := e.Apply(before, DeleteOrderItem{OrderID: id, ItemID: "item-ghost"})
	assert.Same(t, before, after)
	assert.Equal(t, EventNoop, events[0].Kind)
}

// itemTotal sums an item's quantity across all orders.
func itemTotal(state *model.AppState, itemID string) float64 {
	var total float64
	for _, o := range state.Orders {
		for _, line := range o.Items {
			if line.ItemID == itemID {
				total += line.Quantity
			}
		}
	}
	return total
}

func TestApply_MoveOrderItem_ConservesQuantity(t *testing.T) {
	e := newTestEngine()
	state, src := createOrder(t, e, baseState(), model.StoreCV2, "sup-acme")
	state, dst := createOrder(t, e, state, model.StoreCV1, "sup-acme")
	state, _ = e.Apply(state, AddOrderItem{OrderID: src, Item: model.OrderItem{ItemID: "item-onion", Quantity: 2}})
	state, _ = e.Apply(state, AddOrderItem{OrderID: dst, Item: model.OrderItem{ItemID: "item-onion", Quantity: 3}})

	before := itemTotal(state, "item-onion")
	state, events := e.Apply(state, MoveOrderItem{FromOrderID: src, ToOrderID: dst, ItemID: "item-onion"})

	require.Equal(t, EventItemMoved, events[0].Kind)
	assert.Equal(t, before, itemTotal(state, "item-onion"), "move must conserve total quantity")
	assert.Nil(t, state.FindOrder(src).FindItem("item-onion"))
	assert.Equal(t, 5.0, state.FindOrder(dst).FindItem("item-onion").Quantity, "merge-by-key on destination")
}

func TestApply_MoveOrderItem_SameOrderIsNoopOnSource(t *testing.T) {
	e := newTestEngine()
	state, id := createOrder(t, e, baseState(), model.StoreCV2, "sup-acme")
	state, _ = e.Apply(state, AddOrderItem{OrderID: id, Item: model.OrderItem{ItemID: "item-onion", Quantity: 2}})

	state, _ = e.Apply(state, MoveOrderItem{FromOrderID: id, ToOrderID: id, ItemID: "item-onion"})
	assert.Equal(t, 2.0, state.FindOrder(id).FindItem("item-onion").Quantity,
		"source==destination must not double the quantity")
}

func TestApply_SpoilOrderItem_MergesIntoExistingDispatchingOrder(t *testing.T) {
	e := newTestEngine()
	state, spoiledOrder := createOrder(t, e, baseState(), model.StoreCV2, "sup-acme")
	state, openOrder := createOrder(t, e, state, model.StoreCV2, "sup-acme")
	state, _ = e.Apply(state, AddOrderItem{OrderID: spoiledOrder, Item: model.OrderItem{ItemID: "item-onion", Name: "Onions", Quantity: 2}})

	countersBefore := state.Counters["0506_ACME_CV2"]
	state, _ = e.Apply(state, SpoilOrderItem{OrderID: spoiledOrder, ItemID: "item-onion"})

	assert.True(t, state.FindOrder(spoiledOrder).FindItem("item-onion").IsSpoiled)

	replacement := state.FindOrder(openOrder).FindItem("item-onion")
	require.NotNil(t, replacement, "replacement must merge into the open order")
	assert.False(t, replacement.IsSpoiled)
	assert.Equal(t, 2.0, replacement.Quantity)
	assert.Equal(t, countersBefore, state.Counters["0506_ACME_CV2"], "no new order, no counter bump")
}

func TestApply_SpoilOrderItem_SynthesizesOrderWhenNoneOpen(t *testing.T) {
	// Scenario from the transition contract: no DISPATCHING order exists
	// for (store, supplier), so spoil creates one and bumps the counter by
	// exactly 1.
	e := newTestEngine()
	state, id := createOrder(t, e, baseState(), model.StoreCV2, "sup-acme")
	state, _ = e.Apply(state, AddOrderItem{OrderID: id, Item: model.OrderItem{ItemID: "item-onion", Name: "Onions", Quantity: 2}})
	state, _ = e.Apply(state, SendOrder{OrderID: id})

	countersBefore := state.Counters["0506_ACME_CV2"]
	state, events := e.Apply(state, SpoilOrderItem{OrderID: id, ItemID: "item-onion"})

	kinds := make([]EventKind, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind
	}
	assert.Contains(t, kinds, EventItemSpoiled)
	assert.Contains(t, kinds, EventOrderCreated)

	assert.Equal(t, countersBefore+1, state.Counters["0506_ACME_CV2"], "counter bumped by exactly 1")
	require.Len(t, state.Orders, 2)

	reorder := state.FindDispatchingOrder(model.StoreCV2, "sup-acme")
	require.NotNil(t, reorder)
	require.Len(t, reorder.Items, 1)
	assert.False(t, reorder.Items[0].IsSpoiled)
	assert.Equal(t, 2.0, reorder.Items[0].Quantity)
	assert.True(t, state.FindOrder(id).FindItem("item-onion").IsSpoiled)
}

func TestApply_SpoilOrderItem_NeverTargetsItsOwnOrder(t *testing.T) {
	e := newTestEngine()
	state, id := createOrder(t, e, baseState(), model.StoreCV2, "sup-acme")
	state, _ = e.Apply(state, AddOrderItem{OrderID: id, Item: model.OrderItem{ItemID: "item-onion", Quantity: 2}})

	// The spoiled order is itself DISPATCHING and matches (store, supplier):
	// the replacement must still go to a fresh order.
	state, _ = e.Apply(state, SpoilOrderItem{OrderID: id, ItemID: "item-onion"})

	require.Len(t, state.Orders, 2)
	assert.Equal(t, 2.0, state.FindOrder(id).FindItem("item-onion").Quantity,
		"spoiled line keeps its quantity")
}

func TestApply_ReceiveThenUpdate_CompletedAtUnchanged(t *testing.T) {
	clock := testutil.NewSteppingClock(testStart, time.Second)
	e := New(clock, testutil.NewSequenceIDs("ord"))

	state, id := createOrder(t, e, baseState(), model.StoreCV2, "sup-acme")
	state, _ = e.Apply(state, AddOrderItem{OrderID: id, Item: model.OrderItem{ItemID: "item-onion", Quantity: 2}})
	state, _ = e.Apply(state, SendOrder{OrderID: id})
	state, _ = e.Apply(state, ReceiveOrder{OrderID: id})

	completedAt := *state.FindOrder(id).CompletedAt

	qty := 9.0
	state, _ = e.Apply(state, UpdateOrderItem{OrderID: id, ItemID: "item-onion", Quantity: &qty})
	require.NotNil(t, state.FindOrder(id).CompletedAt)
	assert.Equal(t, completedAt, *state.FindOrder(id).CompletedAt)
}

func TestApply_DeleteOrder_OnlyWhileDispatching(t *testing.T) {
	e := newTestEngine()
	state, id := createOrder(t, e, baseState(), model.StoreCV2, "sup-acme")
	state, _ = e.Apply(state, SendOrder{OrderID: id})

	after, events := e.Apply(state, DeleteOrder{OrderID: id})
	assert.Same(t, state, after)
	assert.Equal(t, EventNoop, events[0].Kind)

	state, _ = e.Apply(state, UnsendOrder{OrderID: id})
	state, events = e.Apply(state, DeleteOrder{OrderID: id})
	assert.Equal(t, EventOrderDeleted, events[0].Kind)
	assert.Nil(t, state.FindOrder(id))
}

func TestApply_UpdateItem_RepairsDenormalizedLines(t *testing.T) {
	e := newTestEngine()
	state, id := createOrder(t, e, baseState(), model.StoreCV2, "sup-acme")
	state, _ = e.Apply(state, AddOrderItem{OrderID: id, Item: model.OrderItem{ItemID: "item-onion", Name: "Onions", Quantity: 2, Unit: "kg"}})
	state, noUnit := createOrder(t, e, state, model.StoreCV1, "sup-acme")
	state, _ = e.Apply(state, AddOrderItem{OrderID: noUnit, Item: model.OrderItem{ItemID: "item-onion", Name: "Onions", Quantity: 1}})

	updated := *state.FindMasterItem("item-onion")
	updated.Name = "Red Onions"
	updated.Unit = "box"
	state, _ = e.Apply(state, UpdateItem{Item: updated})

	withOverride := state.FindOrder(id).FindItem("item-onion")
	assert.Equal(t, "Red Onions", withOverride.Name)
	assert.Equal(t, "box", withOverride.Unit, "explicit override follows the master unit")

	inherits := state.FindOrder(noUnit).FindItem("item-onion")
	assert.Equal(t, "Red Onions", inherits.Name)
	assert.Equal(t, "", inherits.Unit, "inheriting lines stay inheriting")
}

func TestApply_UpdateSettings_Wholesale(t *testing.T) {
	e := newTestEngine()
	state := baseState()
	state.Settings = model.Settings{DefaultStore: model.StoreCV1, AutoSync: true}

	state, _ = e.Apply(state, UpdateSettings{Settings: model.Settings{CatchAllSupplier: "sup-farm"}})
	assert.Equal(t, model.Settings{CatchAllSupplier: "sup-farm"}, state.Settings,
		"settings are replaced wholesale, not merged")
}

func TestApply_UnrecognizedActionReturnsSameState(t *testing.T) {
	type strangeAction struct{ Action }
	e := newTestEngine()
	before := baseState()

	after, events := e.Apply(before, strangeAction{})
	assert.Same(t, before, after)
	assert.Empty(t, events)
}

func TestApply_Determinism_ReplayYieldsIdenticalState(t *testing.T) {
	actions := []Action{
		CreateOrder{Store: model.StoreCV2, SupplierID: "sup-acme"},
		AddOrderItem{OrderID: "ord-1", Item: model.OrderItem{ItemID: "item-onion", Name: "Onions", Quantity: 2}},
		AddOrderItem{OrderID: "ord-1", Item: model.OrderItem{ItemID: "item-onion", Name: "Onions", Quantity: 3}},
		CreateOrder{Store: model.StoreCV1, SupplierID: "sup-farm"},
		MoveOrderItem{FromOrderID: "ord-1", ToOrderID: "ord-2", ItemID: "item-onion"},
		SendOrder{OrderID: "ord-2"},
		SpoilOrderItem{OrderID: "ord-2", ItemID: "item-onion"},
		ReceiveOrder{OrderID: "ord-2"},
	}

	replay := func() *model.AppState {
		e := New(testutil.NewSteppingClock(testStart, time.Second), testutil.NewSequenceIDs("ord"))
		state := baseState()
		for _, a := range actions {
			state, _ = e.Apply(state, a)
		}
		return state
	}

	assert.Equal(t, replay(), replay(), "identical action sequences must yield identical state")
}

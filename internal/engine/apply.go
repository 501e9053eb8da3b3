package engine

import (
	"fmt"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
)

// Engine holds the injected collaborators of the transition function.
// It carries no mutable state of its own; all state lives in AppState.
type Engine struct {
	clock Clock
	ids   IDGenerator
}

// New creates an Engine with the given clock and id generator.
func New(clock Clock, ids IDGenerator) *Engine {
	return &Engine{clock: clock, ids: ids}
}

// Apply is the transition function: (state, action) -> (state', events).
//
// Apply is pure and total. It never mutates its input state (the caller's
// reference stays valid), performs no I/O, and defines an outcome for every
// recognized action; unrecognized actions return the input state unchanged
// with no events. An action referencing a missing order or line is a no-op
// that returns the input state plus an EventNoop describing why.
//
// Apply does not gate item-level mutations by order status; that policy
// belongs to callers (see CanMutateItems). Order deletion outside
// DISPATCHING is refused here, because it is a data invariant rather than
// presentation policy.
func (e *Engine) Apply(state *model.AppState, action Action) (*model.AppState, []Event) {
	switch a := action.(type) {
	case CreateOrder:
		return e.applyCreateOrder(state, a)
	case SendOrder:
		return e.applyLifecycle(state, a.OrderID, LifecycleSend, EventOrderSent)
	case UnsendOrder:
		return e.applyLifecycle(state, a.OrderID, LifecycleUnsend, EventOrderUnsent)
	case ReceiveOrder:
		return e.applyLifecycle(state, a.OrderID, LifecycleReceive, EventOrderReceived)
	case DeleteOrder:
		return e.applyDeleteOrder(state, a)
	case AddOrderItem:
		return e.applyAddOrderItem(state, a)
	case UpdateOrderItem:
		return e.applyUpdateOrderItem(state, a)
	case DeleteOrderItem:
		return e.applyDeleteOrderItem(state, a)
	case MoveOrderItem:
		return e.applyMoveOrderItem(state, a)
	case SpoilOrderItem:
		return e.applySpoilOrderItem(state, a)
	case ImportItems:
		return e.applyImportItems(state, a)
	case AddItem:
		return e.applyAddItem(state, a)
	case UpdateItem:
		return e.applyUpdateItem(state, a)
	case DeleteItem:
		return e.applyDeleteItem(state, a)
	case UpdateSupplier:
		return e.applyUpdateSupplier(state, a)
	case UpdateSettings:
		next := state.Clone()
		next.Settings = a.Settings
		return next, []Event{{Kind: EventMasterChanged}}
	case ReplaceState:
		return a.State.Clone(), []Event{{Kind: EventStateReplaced}}
	case ReplaceMasterData:
		return e.applyReplaceMasterData(state, a)
	default:
		// Unrecognized action: total function, state unchanged.
		return state, nil
	}
}

// newOrder builds an order shell in the initial lifecycle state, drawing
// its composite id from the counter table of the state being transitioned.
func (e *Engine) newOrder(next *model.AppState, store model.StoreName, sup *model.Supplier) *model.Order {
	now := e.clock.Now()
	next.Orders = append(next.Orders, model.Order{
		ID:           e.ids.NewID(),
		OrderID:      nextOrderID(next.Counters, sup.Name, store, now),
		Store:        store,
		SupplierID:   sup.ID,
		SupplierName: sup.Name,
		Items:        []model.OrderItem{},
		Status:       model.StatusDispatching,
		IsSent:       false,
		IsReceived:   false,
		CreatedAt:    now,
		ModifiedAt:   now,
	})
	return &next.Orders[len(next.Orders)-1]
}

func (e *Engine) applyCreateOrder(state *model.AppState, a CreateOrder) (*model.AppState, []Event) {
	sup := state.FindSupplier(a.SupplierID)
	if sup == nil {
		return state, noop(fmt.Sprintf("create order: unknown supplier %s", a.SupplierID))
	}
	next := state.Clone()
	o := e.newOrder(next, a.Store, sup)
	return next, []Event{{Kind: EventOrderCreated, OrderID: o.ID}}
}

func (e *Engine) applyLifecycle(state *model.AppState, orderID string, ev LifecycleEvent, kind EventKind) (*model.AppState, []Event) {
	if state.FindOrder(orderID) == nil {
		return state, noop(fmt.Sprintf("%s: unknown order %s", ev, orderID))
	}
	next := state.Clone()
	o := next.FindOrder(orderID)
	if err := transition(o, ev, e.clock.Now()); err != nil {
		return state, noop(err.Error())
	}
	o.ModifiedAt = e.clock.Now()
	return next, []Event{{Kind: kind, OrderID: o.ID}}
}

func (e *Engine) applyDeleteOrder(state *model.AppState, a DeleteOrder) (*model.AppState, []Event) {
	o := state.FindOrder(a.OrderID)
	if o == nil {
		return state, noop(fmt.Sprintf("delete order: unknown order %s", a.OrderID))
	}
	if o.Status != model.StatusDispatching {
		return state, noop(fmt.Sprintf("delete order: %s is %s, only DISPATCHING orders may be deleted", a.OrderID, o.Status))
	}
	next := state.Clone()
	for i := range next.Orders {
		if next.Orders[i].ID == a.OrderID {
			next.Orders = append(next.Orders[:i], next.Orders[i+1:]...)
			break
		}
	}
	return next, []Event{{Kind: EventOrderDeleted, OrderID: a.OrderID}}
}

// mergeLine folds a line into an order by itemId: an existing line gains
// the quantity (its spoiled flag and unit are left as they are), otherwise
// the line is appended preserving insertion order.
func mergeLine(o *model.Order, line model.OrderItem) {
	if existing := o.FindItem(line.ItemID); existing != nil {
		existing.Quantity += line.Quantity
		return
	}
	o.Items = append(o.Items, line)
}

func (e *Engine) applyAddOrderItem(state *model.AppState, a AddOrderItem) (*model.AppState, []Event) {
	if state.FindOrder(a.OrderID) == nil {
		return state, noop(fmt.Sprintf("add item: unknown order %s", a.OrderID))
	}
	if a.Item.Quantity < 0 {
		return state, noop(fmt.Sprintf("add item: negative quantity %v", a.Item.Quantity))
	}
	next := state.Clone()
	o := next.FindOrder(a.OrderID)
	mergeLine(o, a.Item)
	o.ModifiedAt = e.clock.Now()
	return next, []Event{{Kind: EventItemAdded, OrderID: o.ID, ItemID: a.Item.ItemID}}
}

func (e *Engine) applyUpdateOrderItem(state *model.AppState, a UpdateOrderItem) (*model.AppState, []Event) {
	o := state.FindOrder(a.OrderID)
	if o == nil {
		return state, noop(fmt.Sprintf("update item: unknown order %s", a.OrderID))
	}
	if o.FindItem(a.ItemID) == nil {
		return state, noop(fmt.Sprintf("update item: order %s has no item %s", a.OrderID, a.ItemID))
	}
	if a.Quantity != nil && *a.Quantity < 0 {
		return state, noop(fmt.Sprintf("update item: negative quantity %v", *a.Quantity))
	}
	next := state.Clone()
	no := next.FindOrder(a.OrderID)
	line := no.FindItem(a.ItemID)
	if a.Quantity != nil {
		line.Quantity = *a.Quantity
	}
	if a.Unit != nil {
		line.Unit = *a.Unit
	}
	no.ModifiedAt = e.clock.Now()
	return next, []Event{{Kind: EventItemUpdated, OrderID: no.ID, ItemID: a.ItemID}}
}

func (e *Engine) applyDeleteOrderItem(state *model.AppState, a DeleteOrderItem) (*model.AppState, []Event) {
	o := state.FindOrder(a.OrderID)
	if o == nil {
		return state, noop(fmt.Sprintf("delete item: unknown order %s", a.OrderID))
	}
	if o.FindItem(a.ItemID) == nil {
		return state, noop(fmt.Sprintf("delete item: order %s has no item %s", a.OrderID, a.ItemID))
	}
	next := state.Clone()
	no := next.FindOrder(a.OrderID)
	for i := range no.Items {
		if no.Items[i].ItemID == a.ItemID {
			no.Items = append(no.Items[:i], no.Items[i+1:]...)
			break
		}
	}
	no.ModifiedAt = e.clock.Now()
	return next, []Event{{Kind: EventItemDeleted, OrderID: no.ID, ItemID: a.ItemID}}
}

func (e *Engine) applyMoveOrderItem(state *model.AppState, a MoveOrderItem) (*model.AppState, []Event) {
	src := state.FindOrder(a.FromOrderID)
	if src == nil {
		return state, noop(fmt.Sprintf("move item: unknown source order %s", a.FromOrderID))
	}
	if state.FindOrder(a.ToOrderID) == nil {
		return state, noop(fmt.Sprintf("move item: unknown destination order %s", a.ToOrderID))
	}
	if src.FindItem(a.ItemID) == nil {
		return state, noop(fmt.Sprintf("move item: order %s has no item %s", a.FromOrderID, a.ItemID))
	}

	// Atomic within this single transition: both orders change in one clone
	// or neither does. Source==destination is a no-op on the source so the
	// total quantity of the item across all orders is conserved.
	next := state.Clone()
	nsrc := next.FindOrder(a.FromOrderID)
	line := *nsrc.FindItem(a.ItemID)
	now := e.clock.Now()

	if a.FromOrderID != a.ToOrderID {
		for i := range nsrc.Items {
			if nsrc.Items[i].ItemID == a.ItemID {
				nsrc.Items = append(nsrc.Items[:i], nsrc.Items[i+1:]...)
				break
			}
		}
		nsrc.ModifiedAt = now
		ndst := next.FindOrder(a.ToOrderID)
		mergeLine(ndst, line)
		ndst.ModifiedAt = now
	}

	return next, []Event{{Kind: EventItemMoved, OrderID: a.ToOrderID, ItemID: a.ItemID}}
}

func (e *Engine) applySpoilOrderItem(state *model.AppState, a SpoilOrderItem) (*model.AppState, []Event) {
	o := state.FindOrder(a.OrderID)
	if o == nil {
		return state, noop(fmt.Sprintf("spoil item: unknown order %s", a.OrderID))
	}
	if o.FindItem(a.ItemID) == nil {
		return state, noop(fmt.Sprintf("spoil item: order %s has no item %s", a.OrderID, a.ItemID))
	}
	sup := state.FindSupplier(o.SupplierID)
	if sup == nil {
		return state, noop(fmt.Sprintf("spoil item: unknown supplier %s", o.SupplierID))
	}

	next := state.Clone()
	no := next.FindOrder(a.OrderID)
	line := no.FindItem(a.ItemID)
	line.IsSpoiled = true
	now := e.clock.Now()
	no.ModifiedAt = now

	// Compensating re-order: a fresh non-spoiled line of the same quantity
	// goes into an open DISPATCHING order for the same store and supplier.
	// The spoiled order itself is never its own re-order target.
	replacement := model.OrderItem{
		ItemID:   line.ItemID,
		Name:     line.Name,
		Quantity: line.Quantity,
		Unit:     line.Unit,
	}
	events := []Event{{Kind: EventItemSpoiled, OrderID: no.ID, ItemID: a.ItemID}}

	target := findDispatchingOrderExcept(next, no.Store, no.SupplierID, no.ID)
	if target == nil {
		target = e.newOrder(next, no.Store, sup)
		events = append(events, Event{Kind: EventOrderCreated, OrderID: target.ID})
	}
	mergeLine(target, replacement)
	target.ModifiedAt = now
	events = append(events, Event{Kind: EventItemAdded, OrderID: target.ID, ItemID: replacement.ItemID})
	return next, events
}

// findDispatchingOrderExcept is FindDispatchingOrder with one order id
// excluded from consideration.
func findDispatchingOrderExcept(s *model.AppState, store model.StoreName, supplierID, exceptID string) *model.Order {
	for i := range s.Orders {
		o := &s.Orders[i]
		if o.ID != exceptID && o.Store == store && o.SupplierID == supplierID && o.Status == model.StatusDispatching {
			return o
		}
	}
	return nil
}

func (e *Engine) applyImportItems(state *model.AppState, a ImportItems) (*model.AppState, []Event) {
	if len(a.Lines) == 0 {
		return state, noop("import: no resolvable lines")
	}
	next := state.Clone()
	now := e.clock.Now()
	var events []Event
	applied := 0

	for _, ln := range a.Lines {
		if ln.Item.Quantity < 0 {
			continue
		}
		sup := next.FindSupplier(ln.SupplierID)
		if sup == nil {
			continue
		}
		target := next.FindDispatchingOrder(a.Store, ln.SupplierID)
		if target == nil {
			target = e.newOrder(next, a.Store, sup)
			events = append(events, Event{Kind: EventOrderCreated, OrderID: target.ID})
		}
		mergeLine(target, ln.Item)
		target.ModifiedAt = now
		events = append(events, Event{Kind: EventItemAdded, OrderID: target.ID, ItemID: ln.Item.ItemID})
		applied++
	}

	if applied == 0 {
		return state, noop("import: no lines resolved to a known supplier")
	}
	return next, events
}

func (e *Engine) applyAddItem(state *model.AppState, a AddItem) (*model.AppState, []Event) {
	next := state.Clone()
	if existing := next.FindMasterItem(a.Item.ID); existing != nil {
		*existing = a.Item
	} else {
		next.Items = append(next.Items, a.Item)
	}
	return next, []Event{{Kind: EventMasterChanged, ItemID: a.Item.ID}}
}

func (e *Engine) applyUpdateItem(state *model.AppState, a UpdateItem) (*model.AppState, []Event) {
	if state.FindMasterItem(a.Item.ID) == nil {
		return state, noop(fmt.Sprintf("update master item: unknown item %s", a.Item.ID))
	}
	next := state.Clone()
	*next.FindMasterItem(a.Item.ID) = a.Item

	// Denormalization repair: every order line caching this item picks up
	// the new display name, and the new unit where the line overrides one.
	now := e.clock.Now()
	for i := range next.Orders {
		o := &next.Orders[i]
		touched := false
		for j := range o.Items {
			if o.Items[j].ItemID != a.Item.ID {
				continue
			}
			o.Items[j].Name = a.Item.Name
			if o.Items[j].Unit != "" {
				o.Items[j].Unit = a.Item.Unit
			}
			touched = true
		}
		if touched {
			o.ModifiedAt = now
		}
	}
	return next, []Event{{Kind: EventMasterChanged, ItemID: a.Item.ID}}
}

func (e *Engine) applyDeleteItem(state *model.AppState, a DeleteItem) (*model.AppState, []Event) {
	if state.FindMasterItem(a.ItemID) == nil {
		return state, noop(fmt.Sprintf("delete master item: unknown item %s", a.ItemID))
	}
	next := state.Clone()
	for i := range next.Items {
		if next.Items[i].ID == a.ItemID {
			next.Items = append(next.Items[:i], next.Items[i+1:]...)
			break
		}
	}
	return next, []Event{{Kind: EventMasterChanged, ItemID: a.ItemID}}
}

func (e *Engine) applyUpdateSupplier(state *model.AppState, a UpdateSupplier) (*model.AppState, []Event) {
	if state.FindSupplier(a.Supplier.ID) == nil {
		return state, noop(fmt.Sprintf("update supplier: unknown supplier %s", a.Supplier.ID))
	}
	next := state.Clone()
	*next.FindSupplier(a.Supplier.ID) = a.Supplier
	return next, []Event{{Kind: EventMasterChanged}}
}

func (e *Engine) applyReplaceMasterData(state *model.AppState, a ReplaceMasterData) (*model.AppState, []Event) {
	next := state.Clone()
	next.Items = make([]model.Item, len(a.Items))
	copy(next.Items, a.Items)
	next.Suppliers = make([]model.Supplier, len(a.Suppliers))
	copy(next.Suppliers, a.Suppliers)
	if a.FeedFingerprint != "" {
		next.FeedFingerprint = a.FeedFingerprint
	}
	return next, []Event{{Kind: EventMasterChanged}}
}

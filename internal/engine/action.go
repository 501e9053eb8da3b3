package engine

import (
	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
)

// Action is the closed set of state transitions. Every action is a struct
// carrying exactly the data its transition needs; Apply switches over the
// concrete types exhaustively, so adding an action without handling it is
// caught by the default branch returning the state unchanged.
type Action interface {
	isAction()
}

// CreateOrder creates a new empty order in StatusDispatching for the given
// store and supplier, generating its composite order id.
type CreateOrder struct {
	Store      model.StoreName
	SupplierID string
}

// SendOrder transitions DISPATCHING -> ON_THE_WAY and sets isSent.
type SendOrder struct {
	OrderID string
}

// UnsendOrder transitions ON_THE_WAY -> DISPATCHING and clears isSent.
type UnsendOrder struct {
	OrderID string
}

// ReceiveOrder transitions ON_THE_WAY -> COMPLETED, sets isReceived, and
// stamps completedAt if it has never been set.
type ReceiveOrder struct {
	OrderID string
}

// DeleteOrder removes an order. Only legal while the order is DISPATCHING.
type DeleteOrder struct {
	OrderID string
}

// AddOrderItem merges an order line into an order: an existing line with
// the same itemId gains the quantity, otherwise the line is appended.
// A negative quantity is refused as a no-op.
type AddOrderItem struct {
	OrderID string
	Item    model.OrderItem
}

// UpdateOrderItem replaces quantity and/or unit of a line. Nil fields are
// left untouched. No-op if the line is absent or the quantity is negative.
type UpdateOrderItem struct {
	OrderID  string
	ItemID   string
	Quantity *float64
	Unit     *string
}

// DeleteOrderItem removes a line. No-op if the line is absent.
type DeleteOrderItem struct {
	OrderID string
	ItemID  string
}

// MoveOrderItem atomically removes a line from the source order and merges
// it into the destination order. The total quantity of the item across all
// orders is unchanged.
type MoveOrderItem struct {
	FromOrderID string
	ToOrderID   string
	ItemID      string
}

// SpoilOrderItem marks a line spoiled in place, then re-orders it: the same
// quantity is merged (non-spoiled) into an open DISPATCHING order for the
// same store and supplier, or a fresh order is synthesized.
type SpoilOrderItem struct {
	OrderID string
	ItemID  string
}

// ImportItems routes resolved free-text lines into orders, one open
// DISPATCHING order per supplier (created on demand) at the given store.
type ImportItems struct {
	Store model.StoreName
	Lines []ImportLine
}

// ImportLine is one resolved free-text line bound to a supplier.
type ImportLine struct {
	SupplierID string
	Item       model.OrderItem
}

// Master-data actions mirror the remote database and are dispatched only
// after the external action adapter has confirmed remote success.

// AddItem inserts a remotely persisted item into the local cache.
type AddItem struct {
	Item model.Item
}

// UpdateItem replaces a cached item and repairs the denormalized
// name/unit on every order line referencing it.
type UpdateItem struct {
	Item model.Item
}

// DeleteItem removes a cached item. Order lines referencing it keep their
// cached copy (the line's itemId becomes dangling, which is tolerated).
type DeleteItem struct {
	ItemID string
}

// UpdateSupplier replaces a cached supplier record.
type UpdateSupplier struct {
	Supplier model.Supplier
}

// UpdateSettings replaces the settings wholesale.
type UpdateSettings struct {
	Settings model.Settings
}

// ReplaceState swaps in an entire reconciled state. Dispatched by the sync
// orchestrator with the merge engine's output.
type ReplaceState struct {
	State *model.AppState
}

// ReplaceMasterData swaps items and suppliers wholesale, leaving orders
// untouched. Dispatched by the sync orchestrator on the flat-feed path.
type ReplaceMasterData struct {
	Items           []model.Item
	Suppliers       []model.Supplier
	FeedFingerprint string
}

func (CreateOrder) isAction()       {}
func (SendOrder) isAction()         {}
func (UnsendOrder) isAction()       {}
func (ReceiveOrder) isAction()      {}
func (DeleteOrder) isAction()       {}
func (AddOrderItem) isAction()      {}
func (UpdateOrderItem) isAction()   {}
func (DeleteOrderItem) isAction()   {}
func (MoveOrderItem) isAction()     {}
func (SpoilOrderItem) isAction()    {}
func (ImportItems) isAction()       {}
func (AddItem) isAction()           {}
func (UpdateItem) isAction()        {}
func (DeleteItem) isAction()        {}
func (UpdateSupplier) isAction()    {}
func (UpdateSettings) isAction()    {}
func (ReplaceState) isAction()      {}
func (ReplaceMasterData) isAction() {}

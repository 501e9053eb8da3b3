package engine

// EventKind classifies the intents a transition emits for the shell.
type EventKind string

const (
	EventOrderCreated  EventKind = "order_created"
	EventOrderSent     EventKind = "order_sent"
	EventOrderUnsent   EventKind = "order_unsent"
	EventOrderReceived EventKind = "order_received"
	EventOrderDeleted  EventKind = "order_deleted"
	EventItemAdded     EventKind = "item_added"
	EventItemUpdated   EventKind = "item_updated"
	EventItemDeleted   EventKind = "item_deleted"
	EventItemMoved     EventKind = "item_moved"
	EventItemSpoiled   EventKind = "item_spoiled"
	EventMasterChanged EventKind = "master_changed"
	EventStateReplaced EventKind = "state_replaced"
	EventNoop          EventKind = "noop"
)

// Event is an intent emitted by Apply for the effectful shell: a
// notification to show, a record to announce. The engine itself never
// notifies, prompts, or persists; it only reports what happened.
//
// EventNoop marks a recognized action that had nothing to act on (e.g. an
// unknown order id). The transition is still total - state comes back
// unchanged - but shells can surface the reason instead of staying silent.
type Event struct {
	Kind    EventKind
	OrderID string // internal order id, when the event concerns an order
	ItemID  string // order line item id, when the event concerns a line
	Reason  string // human-readable detail, set for EventNoop
}

func noop(reason string) []Event {
	return []Event{{Kind: EventNoop, Reason: reason}}
}

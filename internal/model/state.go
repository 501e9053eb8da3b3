package model

// AppState is the entire application state: master-data caches, orders,
// settings, and the order-id counter table. It is persisted as a single
// snapshot record and replaced (never patched) on every transition.
//
// Slices keep insertion order; determinism of the engine depends on that
// order being stable across clone and persist round trips.
type AppState struct {
	Items     []Item     `json:"items"`
	Suppliers []Supplier `json:"suppliers"`
	Orders    []Order    `json:"orders"`
	Settings  Settings   `json:"settings"`
	Counters  CounterTable `json:"counters"`

	// FeedFingerprint is a digest of the last ingested flat feed, kept so a
	// re-sync of identical feed content can be detected and skipped.
	FeedFingerprint string `json:"feedFingerprint,omitempty"`
}

// NewAppState returns an empty state with all collections initialized.
func NewAppState() *AppState {
	return &AppState{
		Items:     []Item{},
		Suppliers: []Supplier{},
		Orders:    []Order{},
		Counters:  CounterTable{},
	}
}

// Clone returns a deep copy. The engine clones the current state before
// every transition so callers can hold references to prior states safely.
func (s *AppState) Clone() *AppState {
	out := &AppState{
		Items:           make([]Item, len(s.Items)),
		Suppliers:       make([]Supplier, len(s.Suppliers)),
		Orders:          make([]Order, len(s.Orders)),
		Settings:        s.Settings,
		Counters:        make(CounterTable, len(s.Counters)),
		FeedFingerprint: s.FeedFingerprint,
	}
	copy(out.Items, s.Items)
	copy(out.Suppliers, s.Suppliers)
	for i, o := range s.Orders {
		out.Orders[i] = o
		out.Orders[i].Items = make([]OrderItem, len(o.Items))
		copy(out.Orders[i].Items, o.Items)
		if o.CompletedAt != nil {
			t := *o.CompletedAt
			out.Orders[i].CompletedAt = &t
		}
	}
	for k, v := range s.Counters {
		out.Counters[k] = v
	}
	if s.Settings.MessageTemplates != nil {
		out.Settings.MessageTemplates = make(map[string]string, len(s.Settings.MessageTemplates))
		for k, v := range s.Settings.MessageTemplates {
			out.Settings.MessageTemplates[k] = v
		}
	}
	return out
}

// FindOrder returns a pointer to the order with the given internal id,
// or nil if absent.
func (s *AppState) FindOrder(id string) *Order {
	for i := range s.Orders {
		if s.Orders[i].ID == id {
			return &s.Orders[i]
		}
	}
	return nil
}

// FindSupplier returns the supplier with the given id, or nil if absent.
func (s *AppState) FindSupplier(id string) *Supplier {
	for i := range s.Suppliers {
		if s.Suppliers[i].ID == id {
			return &s.Suppliers[i]
		}
	}
	return nil
}

// FindMasterItem returns the master-data item with the given id, or nil.
func (s *AppState) FindMasterItem(id string) *Item {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return &s.Items[i]
		}
	}
	return nil
}

// FindDispatchingOrder returns the first order matching (store, supplierId)
// that is still in StatusDispatching, or nil. Used by the spoil re-order
// path and by free-text import to merge into an open order.
func (s *AppState) FindDispatchingOrder(store StoreName, supplierID string) *Order {
	for i := range s.Orders {
		o := &s.Orders[i]
		if o.Store == store && o.SupplierID == supplierID && o.Status == StatusDispatching {
			return o
		}
	}
	return nil
}

package model

import (
	"encoding/json"
	"time"
)

// Supplier is master data owned by the remote source of truth.
// The local copy is a cache, fully replaced on every sync.
type Supplier struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ChatGroupID string   `json:"chatGroupId,omitempty"` // external messaging group, optional
	ModifiedAt time.Time `json:"modifiedAt"`
}

// Item is master data: a product that can appear on orders.
// SupplierName duplicates the owning supplier's name for display; the
// engine repairs the duplication when an item is renamed.
type Item struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Unit         string    `json:"unit"`
	SupplierID   string    `json:"supplierId"`
	SupplierName string    `json:"supplierName"`
	CreatedAt    time.Time `json:"createdAt"`
	ModifiedAt   time.Time `json:"modifiedAt"`
}

// OrderItem is a line on an Order. ItemID references an Item, or carries a
// synthetic id for a not-yet-persisted item created from free-text import.
// Within one Order there is at most one OrderItem per ItemID; duplicates
// are merged by quantity summation.
type OrderItem struct {
	ItemID    string  `json:"itemId"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit,omitempty"` // overrides the Item's unit when set
	IsSpoiled bool    `json:"isSpoiled,omitempty"`
}

// Order is a purchase request for one supplier at one store.
//
// CompletedAt is set if and only if Status is StatusCompleted, and once set
// it never changes. Orders are local-first: they may be created and edited
// offline and are reconciled against the remote snapshot during sync.
type Order struct {
	ID           string      `json:"id"`      // internal record id (UUID)
	OrderID      string      `json:"orderId"` // human-readable composite id, e.g. 0506_ACME_CV2_001
	Store        StoreName   `json:"store"`
	SupplierID   string      `json:"supplierId"`
	SupplierName string      `json:"supplierName"`
	Items        []OrderItem `json:"items"`
	Status       OrderStatus `json:"status"`
	IsSent       bool        `json:"isSent"`
	IsReceived   bool        `json:"isReceived"`
	CreatedAt    time.Time   `json:"createdAt"`
	ModifiedAt   time.Time   `json:"modifiedAt"`
	CompletedAt  *time.Time  `json:"completedAt,omitempty"`
}

// orderAlias breaks the UnmarshalJSON recursion.
type orderAlias Order

// legacyOrder carries fields written by older snapshot versions.
type legacyOrder struct {
	orderAlias
	LastUpdate *time.Time `json:"lastUpdate,omitempty"`
}

// UnmarshalJSON decodes an Order, migrating the legacy lastUpdate field
// into ModifiedAt when ModifiedAt is absent. Unknown fields are ignored.
func (o *Order) UnmarshalJSON(data []byte) error {
	var legacy legacyOrder
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}
	*o = Order(legacy.orderAlias)
	if o.ModifiedAt.IsZero() && legacy.LastUpdate != nil {
		o.ModifiedAt = *legacy.LastUpdate
	}
	return nil
}

// FindItem returns a pointer to the OrderItem with the given itemId,
// or nil if the order has no such line.
func (o *Order) FindItem(itemID string) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ItemID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}

// Settings holds connection values, message templates, and feature
// toggles. Settings are mutated wholesale, never merged field by field.
type Settings struct {
	DatabaseURL      string            `json:"databaseUrl,omitempty"`
	FeedURL          string            `json:"feedUrl,omitempty"`
	DefaultStore     StoreName         `json:"defaultStore,omitempty"`
	CatchAllSupplier string            `json:"catchAllSupplier,omitempty"`
	MessageTemplates map[string]string `json:"messageTemplates,omitempty"`
	AutoSync         bool              `json:"autoSync,omitempty"`
}

// CounterTable maps an order-id composite key (DDMM_supplier_store) to the
// last sequence number issued for that key. Counters only ever increase.
type CounterTable map[string]int

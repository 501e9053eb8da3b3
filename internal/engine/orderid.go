package engine

import (
	"fmt"
	"time"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
)

// CompositeKey derives the order-id counter key for a supplier, store, and
// date: DDMM_supplier_store using the local day and month.
//
// The same key scopes both id generation and counter persistence, so two
// orders for the same supplier/store on the same day share one counter.
func CompositeKey(supplierName string, store model.StoreName, date time.Time) string {
	return fmt.Sprintf("%02d%02d_%s_%s", date.Day(), int(date.Month()), supplierName, store)
}

// nextOrderID increments the counter for the composite key and formats the
// order id as key_NNN with the sequence zero-padded to three digits.
//
// Counters are monotonic and never reused. Uniqueness holds because the
// dispatcher applies transitions strictly one at a time: two generations in
// the same clock tick still observe distinct counter values. The counter
// table is mutated in place; callers pass the cloned state's table.
func nextOrderID(counters model.CounterTable, supplierName string, store model.StoreName, date time.Time) string {
	key := CompositeKey(supplierName, store, date)
	seq := counters[key] + 1
	counters[key] = seq
	return fmt.Sprintf("%s_%03d", key, seq)
}

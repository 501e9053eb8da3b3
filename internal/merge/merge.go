// Package merge reconciles locally mutated state with a freshly fetched
// remote snapshot. Master data is replaced wholesale (remote is the sole
// source of truth); orders are reconciled per id with record-granularity
// last-writer-wins on modifiedAt.
//
// Reconcile is a pure function of its two inputs and is idempotent:
// Reconcile(Reconcile(local, remote), remote) reproduces its own output
// unchanged, including ordering.
package merge

import (
	"strconv"
	"strings"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
)

// RemoteSnapshot is the full remote read: flat master-data collections and
// the order collection with nested order items.
type RemoteSnapshot struct {
	Items     []model.Item     `json:"items"`
	Suppliers []model.Supplier `json:"suppliers"`
	Orders    []model.Order    `json:"orders"`
}

// Reconcile merges a remote snapshot into local state and returns the
// reconciled state. Neither input is mutated.
//
// Items and suppliers: remote replaces local wholesale, no merge.
//
// Orders, per id:
//   - present only remotely: adopt the remote record
//   - present only locally: keep the local record (created offline, not
//     yet synced upstream)
//   - present in both: the record with the strictly later modifiedAt wins
//     in its entirety; on an exactly equal timestamp the remote record
//     wins, so repeated syncs converge toward the upstream copy
//
// The reconciliation key is the internal record id. The composite orderId
// is a human-facing label minted independently on each replica and may
// collide across them, so it is never used for identity.
//
// Result ordering is deterministic: remote orders in remote order, then
// local-only orders in local order. Settings and the feed fingerprint
// always come from local state; counters come from local state too, but
// are raised to cover the composite ids of adopted remote orders (see
// raiseCounters).
func Reconcile(local *model.AppState, remote RemoteSnapshot) *model.AppState {
	out := local.Clone()

	out.Items = make([]model.Item, len(remote.Items))
	copy(out.Items, remote.Items)
	out.Suppliers = make([]model.Supplier, len(remote.Suppliers))
	copy(out.Suppliers, remote.Suppliers)

	out.Orders = reconcileOrders(local.Orders, remote.Orders)
	raiseCounters(out.Counters, out.Orders)
	return out
}

// PendingPush returns the local orders a reconciliation leaves unknown to
// or older on the remote side: local-only records and records whose local
// copy is strictly newer. The sync orchestrator uploads them best effort
// after a successful database sync.
func PendingPush(local *model.AppState, remote RemoteSnapshot) []model.Order {
	remoteByID := make(map[string]model.Order, len(remote.Orders))
	for _, o := range remote.Orders {
		remoteByID[o.ID] = o
	}
	var pending []model.Order
	for _, o := range local.Orders {
		r, ok := remoteByID[o.ID]
		if !ok || o.ModifiedAt.After(r.ModifiedAt) {
			pending = append(pending, cloneOrder(o))
		}
	}
	return pending
}

// raiseCounters lifts each composite-id counter to the highest sequence
// suffix present among the reconciled orders. Adopted remote orders can
// carry suffixes the local table never issued; without the lift a later
// local generation could mint a colliding orderId. Counters only ever go
// up, so the lift is idempotent.
func raiseCounters(counters model.CounterTable, orders []model.Order) {
	for _, o := range orders {
		i := strings.LastIndex(o.OrderID, "_")
		if i < 0 {
			continue
		}
		seq, err := strconv.Atoi(o.OrderID[i+1:])
		if err != nil {
			continue
		}
		if key := o.OrderID[:i]; seq > counters[key] {
			counters[key] = seq
		}
	}
}

func reconcileOrders(local, remote []model.Order) []model.Order {
	localByID := make(map[string]model.Order, len(local))
	for _, o := range local {
		localByID[o.ID] = cloneOrder(o)
	}

	merged := make([]model.Order, 0, len(remote)+len(local))
	seen := make(map[string]bool, len(remote))

	for _, r := range remote {
		seen[r.ID] = true
		l, ok := localByID[r.ID]
		if ok && l.ModifiedAt.After(r.ModifiedAt) {
			merged = append(merged, l)
			continue
		}
		// Remote-only, strictly newer remote, or equal timestamps.
		merged = append(merged, cloneOrder(r))
	}

	for _, o := range local {
		if !seen[o.ID] {
			merged = append(merged, cloneOrder(o))
		}
	}
	return merged
}

func cloneOrder(o model.Order) model.Order {
	out := o
	out.Items = make([]model.OrderItem, len(o.Items))
	copy(out.Items, o.Items)
	if o.CompletedAt != nil {
		t := *o.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

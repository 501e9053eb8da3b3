// Package parse is the boundary to the free-text parsing collaborator.
// The collaborator (AI or rule engine) turns pasted text into lines; this
// package resolves each line to a target supplier and builds the single
// import action the engine applies.
package parse

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/engine"
	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
)

// Line is one parsed free-text line: either matched to a known item by the
// collaborator, or carrying a new item name.
type Line struct {
	Quantity      float64
	Unit          string
	MatchedItemID string
	NewItemName   string
}

// Result reports the outcome of resolving a batch of lines. Lines that
// resolve to no supplier are dropped silently and only counted; zero
// resolvable lines is a zero-created outcome, not an error.
type Result struct {
	Action   engine.ImportItems
	Resolved int
	Dropped  int
}

// syntheticIDPrefix marks order-item ids for items that do not exist in
// master data yet. Such lines live on orders until the item is persisted
// remotely and the caches refresh.
const syntheticIDPrefix = "new:"

// Resolve routes parsed lines to suppliers against the given state:
//
//   - a matched item resolves through its own supplier reference
//   - an unmatched new-item-name line first tries a normalized name match
//     against master data, then falls back to the designated catch-all
//     supplier
//   - lines resolving to no supplier at all are dropped and counted
//
// The catch-all supplier id comes from settings; when it is empty or
// unknown, unmatched lines are dropped.
func Resolve(state *model.AppState, store model.StoreName, lines []Line) Result {
	res := Result{Action: engine.ImportItems{Store: store}}

	catchAll := state.Settings.CatchAllSupplier
	if catchAll != "" && state.FindSupplier(catchAll) == nil {
		catchAll = ""
	}

	for i, ln := range lines {
		imp, ok := resolveLine(state, ln, i, catchAll)
		if !ok {
			res.Dropped++
			continue
		}
		res.Action.Lines = append(res.Action.Lines, imp)
		res.Resolved++
	}
	return res
}

func resolveLine(state *model.AppState, ln Line, idx int, catchAll string) (engine.ImportLine, bool) {
	if ln.MatchedItemID != "" {
		item := state.FindMasterItem(ln.MatchedItemID)
		if item == nil || state.FindSupplier(item.SupplierID) == nil {
			return engine.ImportLine{}, false
		}
		unit := ln.Unit
		if unit == item.Unit {
			unit = "" // no override needed
		}
		return engine.ImportLine{
			SupplierID: item.SupplierID,
			Item: model.OrderItem{
				ItemID:   item.ID,
				Name:     item.Name,
				Quantity: ln.Quantity,
				Unit:     unit,
			},
		}, true
	}

	if ln.NewItemName == "" {
		return engine.ImportLine{}, false
	}

	// The collaborator missed the match; try again with normalized names
	// before treating the line as a genuinely new item.
	if item := matchByName(state, ln.NewItemName); item != nil {
		if state.FindSupplier(item.SupplierID) == nil {
			return engine.ImportLine{}, false
		}
		unit := ln.Unit
		if unit == item.Unit {
			unit = ""
		}
		return engine.ImportLine{
			SupplierID: item.SupplierID,
			Item: model.OrderItem{
				ItemID:   item.ID,
				Name:     item.Name,
				Quantity: ln.Quantity,
				Unit:     unit,
			},
		}, true
	}

	if catchAll == "" {
		return engine.ImportLine{}, false
	}
	return engine.ImportLine{
		SupplierID: catchAll,
		Item: model.OrderItem{
			ItemID:   fmt.Sprintf("%s%s-%d", syntheticIDPrefix, NormalizeName(ln.NewItemName), idx),
			Name:     strings.TrimSpace(ln.NewItemName),
			Quantity: ln.Quantity,
			Unit:     ln.Unit,
		},
	}, true
}

// matchByName finds a master-data item whose normalized name equals the
// normalized input, or nil.
func matchByName(state *model.AppState, name string) *model.Item {
	want := NormalizeName(name)
	if want == "" {
		return nil
	}
	for i := range state.Items {
		if NormalizeName(state.Items[i].Name) == want {
			return &state.Items[i]
		}
	}
	return nil
}

var nameFolder = cases.Fold()

// NormalizeName canonicalizes an item name for comparison: NFC
// normalization, case folding, and whitespace collapse. Pasted text mixes
// composed/decomposed accents and arbitrary casing; both must compare
// equal.
func NormalizeName(name string) string {
	s := norm.NFC.String(name)
	s = nameFolder.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// IsSyntheticID reports whether an order-item id refers to a
// not-yet-persisted item created by free-text import.
func IsSyntheticID(id string) bool {
	return strings.HasPrefix(id, syntheticIDPrefix)
}

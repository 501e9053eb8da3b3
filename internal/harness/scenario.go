// Package harness replays YAML action scenarios through the engine and
// compares the final state against golden files. It backs the determinism
// guarantee: the same ordered action sequence against the same initial
// state must always yield an identical final state.
package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/engine"
	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
)

// Scenario defines a replay scenario: fixture master data, a clock
// configuration, and an ordered action sequence.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Start pins the deterministic clock, RFC3339 (e.g. 2025-06-05T08:00:00Z).
	Start string `yaml:"start"`

	// Step advances the clock after every read; zero keeps it pinned.
	Step time.Duration `yaml:"step,omitempty"`

	// Suppliers and Items seed the master-data caches. Fixture timestamps
	// default to the clock start.
	Suppliers []SupplierFixture `yaml:"suppliers,omitempty"`
	Items     []ItemFixture     `yaml:"items,omitempty"`

	// Actions is the ordered sequence replayed through the engine.
	// Generated order ids are deterministic: ord-1, ord-2, ...
	Actions []ActionStep `yaml:"actions"`
}

// SupplierFixture seeds one supplier.
type SupplierFixture struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// ItemFixture seeds one master-data item.
type ItemFixture struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Unit     string `yaml:"unit"`
	Supplier string `yaml:"supplier"`
}

// ActionStep is one action in the sequence, discriminated by Type.
type ActionStep struct {
	Type string `yaml:"type"`

	Store    string  `yaml:"store,omitempty"`
	Supplier string  `yaml:"supplier,omitempty"`
	Order    string  `yaml:"order,omitempty"`
	From     string  `yaml:"from,omitempty"`
	To       string  `yaml:"to,omitempty"`
	Item     string  `yaml:"item,omitempty"`
	Name     string  `yaml:"name,omitempty"`
	Qty      float64 `yaml:"qty,omitempty"`
	Unit     string  `yaml:"unit,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly instead of silently skipping steps.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Name == "" {
		return nil, fmt.Errorf("invalid scenario: name is required")
	}
	if scenario.Start == "" {
		return nil, fmt.Errorf("invalid scenario: start is required")
	}
	if len(scenario.Actions) == 0 {
		return nil, fmt.Errorf("invalid scenario: at least one action is required")
	}
	return &scenario, nil
}

// initialState builds the seeded state for a scenario.
func (s *Scenario) initialState(start time.Time) *model.AppState {
	state := model.NewAppState()
	for _, sup := range s.Suppliers {
		state.Suppliers = append(state.Suppliers, model.Supplier{
			ID:         sup.ID,
			Name:       sup.Name,
			ModifiedAt: start,
		})
	}
	for _, it := range s.Items {
		var supplierName string
		if sup := state.FindSupplier(it.Supplier); sup != nil {
			supplierName = sup.Name
		}
		state.Items = append(state.Items, model.Item{
			ID:           it.ID,
			Name:         it.Name,
			Unit:         it.Unit,
			SupplierID:   it.Supplier,
			SupplierName: supplierName,
			CreatedAt:    start,
			ModifiedAt:   start,
		})
	}
	return state
}

// decode converts an ActionStep into an engine action.
func (st ActionStep) decode() (engine.Action, error) {
	switch st.Type {
	case "create_order":
		return engine.CreateOrder{Store: model.StoreName(st.Store), SupplierID: st.Supplier}, nil
	case "send":
		return engine.SendOrder{OrderID: st.Order}, nil
	case "unsend":
		return engine.UnsendOrder{OrderID: st.Order}, nil
	case "receive":
		return engine.ReceiveOrder{OrderID: st.Order}, nil
	case "delete_order":
		return engine.DeleteOrder{OrderID: st.Order}, nil
	case "add_item":
		return engine.AddOrderItem{
			OrderID: st.Order,
			Item: model.OrderItem{
				ItemID:   st.Item,
				Name:     st.Name,
				Quantity: st.Qty,
				Unit:     st.Unit,
			},
		}, nil
	case "delete_item":
		return engine.DeleteOrderItem{OrderID: st.Order, ItemID: st.Item}, nil
	case "move_item":
		return engine.MoveOrderItem{FromOrderID: st.From, ToOrderID: st.To, ItemID: st.Item}, nil
	case "spoil_item":
		return engine.SpoilOrderItem{OrderID: st.Order, ItemID: st.Item}, nil
	default:
		return nil, fmt.Errorf("unknown action type %q", st.Type)
	}
}

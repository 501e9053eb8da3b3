package harness

import (
	"fmt"
	"time"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/engine"
	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/testutil"
)

// Result holds the final state and the events every transition emitted,
// in order.
type Result struct {
	Final  *model.AppState
	Events []engine.Event
}

// Run replays a scenario's actions through a fresh engine with a
// deterministic clock and id generator, returning the final state.
//
// Running the same scenario twice yields byte-identical serialized state;
// the golden tests depend on that.
func Run(scenario *Scenario) (*Result, error) {
	start, err := time.Parse(time.RFC3339, scenario.Start)
	if err != nil {
		return nil, fmt.Errorf("parse scenario start: %w", err)
	}

	eng := engine.New(
		testutil.NewSteppingClock(start, scenario.Step),
		testutil.NewSequenceIDs("ord"),
	)

	state := scenario.initialState(start)
	result := &Result{}

	for i, step := range scenario.Actions {
		action, err := step.decode()
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		var events []engine.Event
		state, events = eng.Apply(state, action)
		result.Events = append(result.Events, events...)
	}

	result.Final = state
	return result, nil
}

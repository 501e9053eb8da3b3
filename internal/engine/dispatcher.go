package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
)

// Persister writes the full state snapshot after an accepted transition.
// Implemented by the snapshot store. Failure is reported, not retried, and
// never rolls back the in-memory state.
type Persister interface {
	Save(ctx context.Context, state *model.AppState) error
}

// EventSink receives the events a transition emitted. The shell (CLI,
// notifier) implements it; the engine never presents anything itself.
type EventSink func(events []Event)

// actionQueue is a thread-safe FIFO queue for actions.
//
// Unbounded so a sync result carrying a large merged state never blocks
// the enqueuing goroutine. A buffered signal channel of size 1 coalesces
// wakeups for the Run loop.
type actionQueue struct {
	mu      sync.Mutex
	actions []Action
	closed  bool
	signal  chan struct{}
}

func newActionQueue() *actionQueue {
	return &actionQueue{
		actions: make([]Action, 0, 16),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue adds an action to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *actionQueue) Enqueue(a Action) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.actions = append(q.actions, a)
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes and returns the front action without blocking.
func (q *actionQueue) TryDequeue() (Action, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.actions) == 0 {
		return nil, false
	}
	a := q.actions[0]
	q.actions = q.actions[1:]
	return a, true
}

// Wait returns the signal channel. It closes when the queue is closed.
func (q *actionQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of pending actions.
func (q *actionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

// Close marks the queue closed and wakes any waiter.
func (q *actionQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

// Dispatcher serializes all state transitions through one goroutine.
//
// Thread-safety model:
//   - Enqueue()/Dispatch(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - State(): safe from any goroutine (returns the latest applied state)
//
// Actions are applied strictly one at a time in arrival order; no two
// Apply invocations ever run concurrently against the same state. This
// single-writer discipline is what makes order-id counters and
// merge-by-key accumulation correct without locks inside Apply.
type Dispatcher struct {
	engine  *Engine
	persist Persister
	sink    EventSink
	queue   *actionQueue

	mu    sync.RWMutex
	state *model.AppState
}

// NewDispatcher creates a Dispatcher over an initial state.
// persist and sink may be nil (useful in tests).
func NewDispatcher(engine *Engine, initial *model.AppState, persist Persister, sink EventSink) *Dispatcher {
	if initial == nil {
		initial = model.NewAppState()
	}
	return &Dispatcher{
		engine:  engine,
		persist: persist,
		sink:    sink,
		queue:   newActionQueue(),
		state:   initial,
	}
}

// State returns the latest applied state. The returned value must be
// treated as read-only; transitions clone before mutating.
func (d *Dispatcher) State() *model.AppState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Enqueue submits an action for processing by the Run loop.
// Thread-safe. Returns false if the dispatcher has been stopped.
func (d *Dispatcher) Enqueue(a Action) bool {
	return d.queue.Enqueue(a)
}

// QueueLen returns the number of pending actions. Useful for monitoring
// and tests.
func (d *Dispatcher) QueueLen() int {
	return d.queue.Len()
}

// Dispatch applies one action synchronously, bypassing the queue. Intended
// for one-shot callers (CLI commands) that own the dispatcher exclusively;
// it must not be mixed with a concurrently running Run loop.
func (d *Dispatcher) Dispatch(ctx context.Context, a Action) []Event {
	return d.step(ctx, a)
}

// Run starts the single-writer action loop. Blocks until the context is
// cancelled or Stop() is called.
//
// Persistence failure is logged and the loop continues: the accepted state
// remains live in memory (stale-on-disk is recoverable, a halted engine is
// not).
func (d *Dispatcher) Run(ctx context.Context) error {
	slog.Info("dispatcher starting")
	for {
		action, ok := d.queue.TryDequeue()
		if ok {
			d.step(ctx, action)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("dispatcher stopping: context cancelled")
			d.queue.Close()
			return ctx.Err()
		case <-d.queue.Wait():
			if d.queue.Len() == 0 {
				slog.Info("dispatcher stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop gracefully shuts down the dispatcher. Closes the action queue,
// which causes Run() to return once drained.
func (d *Dispatcher) Stop() {
	d.queue.Close()
}

// step applies one action and performs the scoped side effects: persist
// the snapshot, hand events to the sink.
func (d *Dispatcher) step(ctx context.Context, a Action) []Event {
	d.mu.RLock()
	current := d.state
	d.mu.RUnlock()

	next, events := d.engine.Apply(current, a)

	if next != current {
		d.mu.Lock()
		d.state = next
		d.mu.Unlock()

		if d.persist != nil {
			if err := d.persist.Save(ctx, next); err != nil {
				slog.Error("snapshot persist failed, state remains in memory",
					"error", err,
					"action", actionName(a),
				)
			}
		}
	}

	if d.sink != nil && len(events) > 0 {
		d.sink(events)
	}
	return events
}

// actionName names an action for logs.
func actionName(a Action) string {
	switch a.(type) {
	case CreateOrder:
		return "create_order"
	case SendOrder:
		return "send_order"
	case UnsendOrder:
		return "unsend_order"
	case ReceiveOrder:
		return "receive_order"
	case DeleteOrder:
		return "delete_order"
	case AddOrderItem:
		return "add_order_item"
	case UpdateOrderItem:
		return "update_order_item"
	case DeleteOrderItem:
		return "delete_order_item"
	case MoveOrderItem:
		return "move_order_item"
	case SpoilOrderItem:
		return "spoil_order_item"
	case ImportItems:
		return "import_items"
	case AddItem:
		return "add_item"
	case UpdateItem:
		return "update_item"
	case DeleteItem:
		return "delete_item"
	case UpdateSupplier:
		return "update_supplier"
	case UpdateSettings:
		return "update_settings"
	case ReplaceState:
		return "replace_state"
	case ReplaceMasterData:
		return "replace_master_data"
	default:
		return "unknown"
	}
}

// Package engine implements the order hub's state engine.
//
// ARCHITECTURE:
//
// Single-Writer Transition Loop:
// All state mutation flows through Apply(state, action), a pure transition
// function. The Dispatcher applies actions strictly one at a time in arrival
// order from a single goroutine. This ensures:
//   - Order-id counters never collide (no concurrent increments)
//   - Merge-by-key quantity accumulation is race-free
//   - Replaying the same action sequence reproduces the same final state
//
// Action Processing Flow:
//  1. Actions enqueued to a FIFO queue (CLI commands, sync results,
//     adapter-confirmed master-data mutations)
//  2. Dispatcher.Run() dequeues actions one at a time
//  3. Apply() returns the next state plus a list of Events (intents)
//  4. The persist hook writes the snapshot; failure is logged, not retried,
//     and never rolls back the in-memory state
//  5. Events are handed to the shell's sink for notification/presentation
//
// Apply itself performs no I/O and triggers no notifications; the shell
// around the engine owns every observable side effect.
//
// Timestamps come from an injected Clock and record ids from an injected
// IDGenerator, so tests (and the scenario harness) run fully deterministic.
package engine

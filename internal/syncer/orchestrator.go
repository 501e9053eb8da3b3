// Package syncer drives the pull-and-reconcile cycle: pick a data source,
// fetch, merge, and dispatch the result back into the single-writer queue.
// Sync never blocks the application on failure; previously cached state
// stays fully usable (stale-but-available).
package syncer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/engine"
	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/merge"
	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/remote"
)

// State is the orchestrator's lifecycle state.
type State string

const (
	StateIdle    State = "idle"
	StateSyncing State = "syncing"
	StateError   State = "error"
	StateOffline State = "offline"
)

// Source names which data source a sync cycle ended up using.
type Source string

const (
	SourceDatabase Source = "database"
	SourceFeed     Source = "feed"
	SourceCache    Source = "cache"
)

// DatabaseSource is the structured remote database: the full snapshot read
// plus the best-effort order upload. Satisfied by *remote.Client.
type DatabaseSource interface {
	FetchSnapshot(ctx context.Context) (merge.RemoteSnapshot, error)
	PushOrders(ctx context.Context, orders []model.Order) error
}

// FeedSource fetches raw flat-feed text with its fingerprint.
// Satisfied by *remote.FeedClient.
type FeedSource interface {
	Fetch(ctx context.Context) (raw, fingerprint string, err error)
}

// ConnectivityProbe reports whether the network is reachable at all.
// When it returns false the orchestrator goes straight to StateOffline
// without attempting any remote call.
type ConnectivityProbe func(ctx context.Context) bool

// Outcome summarizes one sync cycle for the caller.
type Outcome struct {
	State  State
	Source Source
	// Skipped is true when the feed fingerprint matched the cached one and
	// the master-data replace was elided.
	Skipped bool
	Err     error
}

// Orchestrator is a small state machine over {idle, syncing, error,
// offline}. Sources are attempted in priority order: the structured remote
// database (full merge including orders), then the flat feed (master data
// only), then the already-cached local snapshot.
type Orchestrator struct {
	db       DatabaseSource
	feed     FeedSource
	online   ConnectivityProbe
	parser   remote.FeedParser
	dispatch func(engine.Action)

	mu    sync.Mutex
	state State
}

// New creates an Orchestrator. db, feed, and parser may be nil when the
// corresponding source is not configured; a nil probe means always online.
func New(db DatabaseSource, feed FeedSource, parser remote.FeedParser, online ConnectivityProbe, dispatch func(engine.Action)) *Orchestrator {
	return &Orchestrator{
		db:       db,
		feed:     feed,
		parser:   parser,
		online:   online,
		dispatch: dispatch,
		state:    StateIdle,
	}
}

// State returns the current orchestrator state. Thread-safe.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Sync runs one cycle against the given local state and returns the
// outcome. The reconciled result is fed back through dispatch as exactly
// one action; the orchestrator never mutates state directly.
//
// Failure policy: any remote failure transitions to StateError and is
// surfaced in the Outcome, but cached state is untouched - only the merge
// step for this cycle is skipped.
func (o *Orchestrator) Sync(ctx context.Context, local *model.AppState) Outcome {
	if o.online != nil && !o.online(ctx) {
		slog.Info("sync skipped: offline")
		o.setState(StateOffline)
		return Outcome{State: StateOffline, Source: SourceCache}
	}

	o.setState(StateSyncing)

	var lastErr error

	if o.db != nil {
		out, err := o.syncDatabase(ctx, local)
		if err == nil {
			o.setState(StateIdle)
			return out
		}
		lastErr = err
		slog.Warn("database sync failed, trying flat feed", "error", err)
	}

	if o.feed != nil && o.parser != nil {
		out, err := o.syncFeed(ctx, local)
		if err == nil {
			o.setState(StateIdle)
			return out
		}
		lastErr = err
		slog.Warn("feed sync failed", "error", err)
	}

	if lastErr == nil {
		// No remote source configured: the cached snapshot is the source.
		o.setState(StateIdle)
		return Outcome{State: StateIdle, Source: SourceCache}
	}

	o.setState(StateError)
	return Outcome{State: StateError, Source: SourceCache, Err: lastErr}
}

// syncDatabase pulls the full remote snapshot, dispatches the reconciled
// state, and pushes the orders the remote side is missing or behind on.
// The push is best effort: a failure is logged and the next cycle retries,
// because PendingPush keeps reporting the same orders until the remote
// snapshot reflects them.
func (o *Orchestrator) syncDatabase(ctx context.Context, local *model.AppState) (Outcome, error) {
	snap, err := o.db.FetchSnapshot(ctx)
	if err != nil {
		return Outcome{}, err
	}
	merged := merge.Reconcile(local, snap)
	o.dispatch(engine.ReplaceState{State: merged})

	if pending := merge.PendingPush(local, snap); len(pending) > 0 {
		if err := o.db.PushOrders(ctx, pending); err != nil {
			slog.Warn("order push failed, retrying next sync", "orders", len(pending), "error", err)
		}
	}

	slog.Info("sync complete",
		"source", SourceDatabase,
		"items", len(merged.Items),
		"suppliers", len(merged.Suppliers),
		"orders", len(merged.Orders),
	)
	return Outcome{State: StateIdle, Source: SourceDatabase}, nil
}

// syncFeed pulls the flat feed and replaces master data only, leaving
// orders untouched. An unchanged fingerprint skips the replace.
func (o *Orchestrator) syncFeed(ctx context.Context, local *model.AppState) (Outcome, error) {
	raw, fingerprint, err := o.feed.Fetch(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if fingerprint == local.FeedFingerprint {
		slog.Info("sync complete", "source", SourceFeed, "skipped", true)
		return Outcome{State: StateIdle, Source: SourceFeed, Skipped: true}, nil
	}
	data, err := o.parser.Parse(raw)
	if err != nil {
		return Outcome{}, err
	}
	o.dispatch(engine.ReplaceMasterData{
		Items:           data.Items,
		Suppliers:       data.Suppliers,
		FeedFingerprint: fingerprint,
	})
	slog.Info("sync complete",
		"source", SourceFeed,
		"items", len(data.Items),
		"suppliers", len(data.Suppliers),
	)
	return Outcome{State: StateIdle, Source: SourceFeed}, nil
}

package cli

import (
	"context"
	"log/slog"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/config"
	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/engine"
	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/remote"
	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/snapshot"
	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/syncer"
)

// App wires the engine, snapshot store, and remote collaborators for one
// command invocation. One-shot commands apply their action synchronously
// via the dispatcher and close the store on the way out.
type App struct {
	Config     config.Config
	Store      *snapshot.Store
	Dispatcher *engine.Dispatcher
	Client     *remote.Client     // nil when no database URL configured
	Feed       *remote.FeedClient // nil when no feed URL configured
	Adapter    *remote.ActionAdapter
}

// openApp loads configuration, opens the snapshot store, loads (or
// initializes) state, and builds the single-writer dispatcher around it.
func openApp(ctx context.Context, opts *RootOptions) (*App, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	store, err := snapshot.Open(cfg.Snapshot.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open snapshot store", err)
	}

	state, err := store.LoadOrInit(ctx)
	if err != nil {
		store.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load snapshot", err)
	}

	eng := engine.New(engine.SystemClock{}, engine.UUIDv7Generator{})
	disp := engine.NewDispatcher(eng, state, store, nil)

	app := &App{
		Config:     cfg,
		Store:      store,
		Dispatcher: disp,
	}
	if cfg.Remote.DatabaseURL != "" {
		app.Client = remote.NewClient(cfg.Remote.DatabaseURL, cfg.Remote.Timeout)
		app.Adapter = remote.NewActionAdapter(app.Client, func(a engine.Action) {
			disp.Dispatch(ctx, a)
		})
	}
	if cfg.Remote.FeedURL != "" {
		app.Feed = remote.NewFeedClient(cfg.Remote.FeedURL, cfg.Remote.Timeout)
	}
	return app, nil
}

// Close releases the snapshot store.
func (a *App) Close() {
	if err := a.Store.Close(); err != nil {
		slog.Error("error closing snapshot store", "error", err)
	}
}

// State returns the latest applied state.
func (a *App) State() *model.AppState {
	return a.Dispatcher.State()
}

// Orchestrator builds a sync orchestrator around this app's collaborators.
// One-shot commands pass a synchronous Dispatch closure; the run command
// passes Enqueue so results flow through the live single-writer loop.
func (a *App) Orchestrator(dispatch func(engine.Action)) *syncer.Orchestrator {
	var db syncer.DatabaseSource
	if a.Client != nil {
		db = a.Client
	}
	var feed syncer.FeedSource
	var parser remote.FeedParser
	if a.Feed != nil {
		feed = a.Feed
		parser = tsvFeedParser{}
	}
	var probe syncer.ConnectivityProbe
	if a.Config.Remote.ProbeURL != "" {
		probe = remote.ProbeURL(a.Config.Remote.ProbeURL, a.Config.Remote.Timeout)
	}
	return syncer.New(db, feed, parser, probe, dispatch)
}

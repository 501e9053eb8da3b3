package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/engine"
)

// NewRunCommand creates the run command: the long-lived engine loop with
// periodic sync.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the engine loop with periodic sync",
		Long: `Start the single-writer engine loop. A sync cycle runs at startup and
then at the configured interval; results are fed back into the action
queue like any other mutation. Stops on SIGINT/SIGTERM.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoop(cmd, rootOpts, interval)
		},
	}

	cmd.Flags().DurationVar(&interval, "sync-interval", 0, "override sync interval (default from config)")
	return cmd
}

func runLoop(cmd *cobra.Command, rootOpts *RootOptions, interval time.Duration) error {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	app, err := openApp(ctx, rootOpts)
	if err != nil {
		return err
	}
	defer app.Close()

	if interval == 0 {
		interval = app.Config.Sync.Interval
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	// Sync results enter the queue like any other action; the orchestrator
	// never touches state directly.
	orch := app.Orchestrator(func(a engine.Action) {
		app.Dispatcher.Enqueue(a)
	})

	go func() {
		orch.Sync(ctx, app.State())
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				orch.Sync(ctx, app.State())
			}
		}
	}()

	slog.Info("engine running", "sync_interval", interval)
	if err := app.Dispatcher.Run(ctx); err != nil && ctx.Err() == nil {
		return WrapExitError(ExitFailure, "engine loop failed", err)
	}
	return nil
}

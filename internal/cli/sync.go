package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/engine"
	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/syncer"
)

// NewSyncCommand creates the sync command: one pull-and-reconcile cycle.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Pull remote data and reconcile local state",
		Long: `Run one sync cycle: attempt the remote database (full merge including
orders), fall back to the flat feed (master data only), fall back to the
cached local snapshot. A failed sync leaves cached state fully usable.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			orch := app.Orchestrator(func(a engine.Action) {
				app.Dispatcher.Dispatch(ctx, a)
			})
			outcome := orch.Sync(ctx, app.State())

			switch outcome.State {
			case syncer.StateOffline:
				fmt.Fprintln(cmd.OutOrStdout(), "offline: no remote call attempted, cached state in use")
			case syncer.StateError:
				fmt.Fprintf(cmd.ErrOrStderr(), "sync failed: %v (cached state remains usable)\n", outcome.Err)
				return WrapExitError(ExitFailure, "sync failed", outcome.Err)
			default:
				if outcome.Skipped {
					fmt.Fprintf(cmd.OutOrStdout(), "synced from %s: feed unchanged, nothing to do\n", outcome.Source)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "synced from %s\n", outcome.Source)
				}
			}
			return nil
		},
	}
}

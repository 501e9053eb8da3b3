package cli

import (
	"github.com/spf13/cobra"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/engine"
	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
)

// NewOrderCommand creates the order command group: lifecycle operations on
// whole orders.
func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Create and manage orders",
	}
	cmd.AddCommand(newOrderCreateCommand(rootOpts))
	cmd.AddCommand(newOrderLifecycleCommand(rootOpts, "send", "Mark an order sent to the supplier",
		func(id string) engine.Action { return engine.SendOrder{OrderID: id} }))
	cmd.AddCommand(newOrderLifecycleCommand(rootOpts, "unsend", "Pull a sent order back to dispatching",
		func(id string) engine.Action { return engine.UnsendOrder{OrderID: id} }))
	cmd.AddCommand(newOrderLifecycleCommand(rootOpts, "receive", "Mark an order received (completes it)",
		func(id string) engine.Action { return engine.ReceiveOrder{OrderID: id} }))
	cmd.AddCommand(newOrderLifecycleCommand(rootOpts, "delete", "Delete a dispatching order",
		func(id string) engine.Action { return engine.DeleteOrder{OrderID: id} }))
	return cmd
}

func newOrderCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var storeFlag, supplierFlag string

	cmd := &cobra.Command{
		Use:           "create",
		Short:         "Create an empty order for a store and supplier",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := model.ParseStore(storeFlag)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid store", err)
			}
			return applyAction(cmd, rootOpts, engine.CreateOrder{
				Store:      store,
				SupplierID: supplierFlag,
			})
		},
	}
	cmd.Flags().StringVar(&storeFlag, "store", "", "store location (required)")
	cmd.Flags().StringVar(&supplierFlag, "supplier", "", "supplier id (required)")
	_ = cmd.MarkFlagRequired("store")
	_ = cmd.MarkFlagRequired("supplier")
	return cmd
}

func newOrderLifecycleCommand(rootOpts *RootOptions, use, short string, build func(id string) engine.Action) *cobra.Command {
	return &cobra.Command{
		Use:           use + " <order-id>",
		Short:         short,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return applyAction(cmd, rootOpts, build(args[0]))
		},
	}
}

// applyAction opens the app, applies one action synchronously, and prints
// the emitted events.
func applyAction(cmd *cobra.Command, rootOpts *RootOptions, action engine.Action) error {
	ctx := cmd.Context()
	app, err := openApp(ctx, rootOpts)
	if err != nil {
		return err
	}
	defer app.Close()

	events := app.Dispatcher.Dispatch(ctx, action)
	return printEvents(cmd.OutOrStdout(), rootOpts.Format, events)
}

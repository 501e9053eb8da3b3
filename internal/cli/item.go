package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/engine"
	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
)

// NewItemCommand creates the item command group: line-level operations on
// a target order.
//
// Item mutations are allowed while the order is DISPATCHING or ON_THE_WAY;
// the engine does not enforce this, the command does (CanMutateItems).
func NewItemCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage order lines",
	}
	cmd.AddCommand(newItemAddCommand(rootOpts))
	cmd.AddCommand(newItemUpdateCommand(rootOpts))
	cmd.AddCommand(newItemDeleteCommand(rootOpts))
	cmd.AddCommand(newItemMoveCommand(rootOpts))
	cmd.AddCommand(newItemSpoilCommand(rootOpts))
	return cmd
}

// gateItemMutation applies the caller-side status policy for line edits.
func gateItemMutation(app *App, orderID string) error {
	o := app.State().FindOrder(orderID)
	if o == nil {
		return nil // let the engine report the unknown order as a no-op
	}
	if !engine.CanMutateItems(o.Status) {
		return NewExitError(ExitFailure, fmt.Sprintf("order %s is %s; its lines can no longer be edited", orderID, o.Status))
	}
	return nil
}

// applyGatedAction is applyAction plus the item-mutation status gate on
// each involved order.
func applyGatedAction(cmd *cobra.Command, rootOpts *RootOptions, action engine.Action, orderIDs ...string) error {
	ctx := cmd.Context()
	app, err := openApp(ctx, rootOpts)
	if err != nil {
		return err
	}
	defer app.Close()

	for _, id := range orderIDs {
		if err := gateItemMutation(app, id); err != nil {
			return err
		}
	}

	events := app.Dispatcher.Dispatch(ctx, action)
	return printEvents(cmd.OutOrStdout(), rootOpts.Format, events)
}

func newItemAddCommand(rootOpts *RootOptions) *cobra.Command {
	var orderFlag, itemFlag, nameFlag, unitFlag string
	var qtyFlag float64

	cmd := &cobra.Command{
		Use:           "add",
		Short:         "Add an item to an order (merges by item id)",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if qtyFlag < 0 {
				return NewExitError(ExitCommandError, "quantity must be >= 0")
			}
			return applyGatedAction(cmd, rootOpts, engine.AddOrderItem{
				OrderID: orderFlag,
				Item: model.OrderItem{
					ItemID:   itemFlag,
					Name:     nameFlag,
					Quantity: qtyFlag,
					Unit:     unitFlag,
				},
			}, orderFlag)
		},
	}
	cmd.Flags().StringVar(&orderFlag, "order", "", "target order id (required)")
	cmd.Flags().StringVar(&itemFlag, "item", "", "item id (required)")
	cmd.Flags().StringVar(&nameFlag, "name", "", "display name")
	cmd.Flags().Float64Var(&qtyFlag, "qty", 1, "quantity")
	cmd.Flags().StringVar(&unitFlag, "unit", "", "unit override")
	_ = cmd.MarkFlagRequired("order")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func newItemUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	var orderFlag, itemFlag, unitFlag string
	var qtyFlag float64

	cmd := &cobra.Command{
		Use:           "update",
		Short:         "Update quantity and/or unit of an order line",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			action := engine.UpdateOrderItem{OrderID: orderFlag, ItemID: itemFlag}
			if cmd.Flags().Changed("qty") {
				if qtyFlag < 0 {
					return NewExitError(ExitCommandError, "quantity must be >= 0")
				}
				action.Quantity = &qtyFlag
			}
			if cmd.Flags().Changed("unit") {
				action.Unit = &unitFlag
			}
			return applyGatedAction(cmd, rootOpts, action, orderFlag)
		},
	}
	cmd.Flags().StringVar(&orderFlag, "order", "", "target order id (required)")
	cmd.Flags().StringVar(&itemFlag, "item", "", "item id (required)")
	cmd.Flags().Float64Var(&qtyFlag, "qty", 0, "new quantity")
	cmd.Flags().StringVar(&unitFlag, "unit", "", "new unit override")
	_ = cmd.MarkFlagRequired("order")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func newItemDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var orderFlag, itemFlag string

	cmd := &cobra.Command{
		Use:           "delete",
		Short:         "Remove an item from an order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return applyGatedAction(cmd, rootOpts, engine.DeleteOrderItem{
				OrderID: orderFlag,
				ItemID:  itemFlag,
			}, orderFlag)
		},
	}
	cmd.Flags().StringVar(&orderFlag, "order", "", "target order id (required)")
	cmd.Flags().StringVar(&itemFlag, "item", "", "item id (required)")
	_ = cmd.MarkFlagRequired("order")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func newItemMoveCommand(rootOpts *RootOptions) *cobra.Command {
	var fromFlag, toFlag, itemFlag string

	cmd := &cobra.Command{
		Use:           "move",
		Short:         "Move an item between orders (quantity conserved)",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return applyGatedAction(cmd, rootOpts, engine.MoveOrderItem{
				FromOrderID: fromFlag,
				ToOrderID:   toFlag,
				ItemID:      itemFlag,
			}, fromFlag, toFlag)
		},
	}
	cmd.Flags().StringVar(&fromFlag, "from", "", "source order id (required)")
	cmd.Flags().StringVar(&toFlag, "to", "", "destination order id (required)")
	cmd.Flags().StringVar(&itemFlag, "item", "", "item id (required)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func newItemSpoilCommand(rootOpts *RootOptions) *cobra.Command {
	var orderFlag, itemFlag string

	cmd := &cobra.Command{
		Use:           "spoil",
		Short:         "Mark an item spoiled and re-order it",
		Long: `Mark an order line spoiled and merge a fresh line of the same quantity
into an open dispatching order for the same store and supplier, creating
one if none exists.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return applyGatedAction(cmd, rootOpts, engine.SpoilOrderItem{
				OrderID: orderFlag,
				ItemID:  itemFlag,
			}, orderFlag)
		},
	}
	cmd.Flags().StringVar(&orderFlag, "order", "", "order holding the spoiled item (required)")
	cmd.Flags().StringVar(&itemFlag, "item", "", "item id (required)")
	_ = cmd.MarkFlagRequired("order")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

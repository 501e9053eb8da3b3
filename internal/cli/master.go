package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
)

// NewMasterCommand creates the master command group: item/supplier master
// data, committed remote-first through the action adapter. Without a
// configured remote database these commands refuse to run - master data
// must never diverge from the remote source.
func NewMasterCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "master",
		Short: "Manage master data (remote-first)",
	}
	cmd.AddCommand(newMasterAddItemCommand(rootOpts))
	cmd.AddCommand(newMasterUpdateItemCommand(rootOpts))
	cmd.AddCommand(newMasterDeleteItemCommand(rootOpts))
	cmd.AddCommand(newMasterUpdateSupplierCommand(rootOpts))
	return cmd
}

// withAdapter opens the app and hands the adapter to fn, enforcing that a
// remote database is configured.
func withAdapter(cmd *cobra.Command, rootOpts *RootOptions, fn func(app *App) error) error {
	app, err := openApp(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.Adapter == nil {
		return NewExitError(ExitCommandError, "no remote database configured; master data cannot be mutated offline")
	}
	return fn(app)
}

func newMasterAddItemCommand(rootOpts *RootOptions) *cobra.Command {
	var nameFlag, unitFlag, supplierFlag string

	cmd := &cobra.Command{
		Use:           "add-item",
		Short:         "Create an item remotely, then cache it locally",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdapter(cmd, rootOpts, func(app *App) error {
				sup := app.State().FindSupplier(supplierFlag)
				if sup == nil {
					return NewExitError(ExitFailure, fmt.Sprintf("unknown supplier %s", supplierFlag))
				}
				row, err := app.Adapter.CreateItem(cmd.Context(), model.Item{
					Name:         nameFlag,
					Unit:         unitFlag,
					SupplierID:   sup.ID,
					SupplierName: sup.Name,
				})
				if err != nil {
					return WrapExitError(ExitFailure, "remote create failed, local state unchanged", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "item %s created\n", row.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&nameFlag, "name", "", "item name (required)")
	cmd.Flags().StringVar(&unitFlag, "unit", "pcs", "unit of measure")
	cmd.Flags().StringVar(&supplierFlag, "supplier", "", "owning supplier id (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("supplier")
	return cmd
}

func newMasterUpdateItemCommand(rootOpts *RootOptions) *cobra.Command {
	var idFlag, nameFlag, unitFlag string

	cmd := &cobra.Command{
		Use:           "update-item",
		Short:         "Update an item remotely, then repair local caches",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdapter(cmd, rootOpts, func(app *App) error {
				existing := app.State().FindMasterItem(idFlag)
				if existing == nil {
					return NewExitError(ExitFailure, fmt.Sprintf("unknown item %s", idFlag))
				}
				updated := *existing
				if cmd.Flags().Changed("name") {
					updated.Name = nameFlag
				}
				if cmd.Flags().Changed("unit") {
					updated.Unit = unitFlag
				}
				row, err := app.Adapter.UpdateItem(cmd.Context(), updated)
				if err != nil {
					return WrapExitError(ExitFailure, "remote update failed, local state unchanged", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "item %s updated\n", row.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&idFlag, "id", "", "item id (required)")
	cmd.Flags().StringVar(&nameFlag, "name", "", "new name")
	cmd.Flags().StringVar(&unitFlag, "unit", "", "new unit")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newMasterDeleteItemCommand(rootOpts *RootOptions) *cobra.Command {
	var idFlag string

	cmd := &cobra.Command{
		Use:           "delete-item",
		Short:         "Delete an item remotely, then drop the local cache entry",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdapter(cmd, rootOpts, func(app *App) error {
				if err := app.Adapter.DeleteItem(cmd.Context(), idFlag); err != nil {
					return WrapExitError(ExitFailure, "remote delete failed, local state unchanged", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "item %s deleted\n", idFlag)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&idFlag, "id", "", "item id (required)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newMasterUpdateSupplierCommand(rootOpts *RootOptions) *cobra.Command {
	var idFlag, nameFlag, chatFlag string

	cmd := &cobra.Command{
		Use:           "update-supplier",
		Short:         "Update a supplier remotely, then cache the stored row",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdapter(cmd, rootOpts, func(app *App) error {
				existing := app.State().FindSupplier(idFlag)
				if existing == nil {
					return NewExitError(ExitFailure, fmt.Sprintf("unknown supplier %s", idFlag))
				}
				updated := *existing
				if cmd.Flags().Changed("name") {
					updated.Name = nameFlag
				}
				if cmd.Flags().Changed("chat-group") {
					updated.ChatGroupID = chatFlag
				}
				row, err := app.Adapter.UpdateSupplier(cmd.Context(), updated)
				if err != nil {
					return WrapExitError(ExitFailure, "remote update failed, local state unchanged", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "supplier %s updated\n", row.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&idFlag, "id", "", "supplier id (required)")
	cmd.Flags().StringVar(&nameFlag, "name", "", "new name")
	cmd.Flags().StringVar(&chatFlag, "chat-group", "", "messaging group reference")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewShowCommand creates the show command: a read-only view of the cached
// state.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Show cached orders and master data",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			state := app.State()
			w := cmd.OutOrStdout()

			if rootOpts.Format == "json" {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(state)
			}

			fmt.Fprintf(w, "suppliers: %d, items: %d, orders: %d\n",
				len(state.Suppliers), len(state.Items), len(state.Orders))
			for _, o := range state.Orders {
				fmt.Fprintf(w, "%s  %-12s %s @ %s  (%d lines, modified %s)\n",
					o.OrderID, o.Status, o.SupplierName, o.Store, len(o.Items),
					o.ModifiedAt.Format("2006-01-02 15:04"))
				for _, line := range o.Items {
					spoiled := ""
					if line.IsSpoiled {
						spoiled = "  [spoiled]"
					}
					unit := line.Unit
					if unit == "" {
						unit = "-"
					}
					fmt.Fprintf(w, "    %-24s %8.2f %-5s%s\n", line.Name, line.Quantity, unit, spoiled)
				}
			}
			return nil
		},
	}
}

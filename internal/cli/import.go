package cli

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/model"
	"github.com/cvik2official-stack/kalisystem-hub-sub002/internal/parse"
)

// NewImportCommand creates the import command: pasted free-text order
// lines read from stdin, parsed by the local rule engine, resolved to
// suppliers, and applied as one transition.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var storeFlag string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import order lines from pasted text (stdin)",
		Long: `Read free-text order lines from stdin, one per line:

  <quantity> [unit] <item name>

Lines matching a known item route to that item's supplier; unmatched
lines route to the configured catch-all supplier. Lines resolving to no
supplier are dropped and reported as a count.

Example:
  printf '2 kg onions\n5 lemongrass\n' | kalihub import --store CV2`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := model.ParseStore(storeFlag)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid store", err)
			}

			ctx := cmd.Context()
			app, err := openApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			lines := parseFreeText(cmd.InOrStdin(), app.State())
			result := parse.Resolve(app.State(), store, lines)

			if result.Resolved == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "0 lines imported, %d dropped\n", result.Dropped)
				return nil
			}

			events := app.Dispatcher.Dispatch(ctx, result.Action)
			if err := printEvents(cmd.OutOrStdout(), rootOpts.Format, events); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d lines imported, %d dropped\n", result.Resolved, result.Dropped)
			return nil
		},
	}

	cmd.Flags().StringVar(&storeFlag, "store", "", "destination store (required)")
	_ = cmd.MarkFlagRequired("store")
	return cmd
}

// knownUnits the rule parser recognizes between quantity and name.
var knownUnits = map[string]bool{
	"pcs": true, "kg": true, "g": true, "l": true, "ml": true,
	"box": true, "pack": true, "btl": true, "can": true,
}

// parseFreeText is the local rule-engine collaborator: each line is
// `<quantity> [unit] <name>`. A name matching a master-data item (after
// normalization) becomes a matched line; anything else carries the raw
// name. Lines without a leading quantity default to quantity 1.
func parseFreeText(r interface{ Read([]byte) (int, error) }, state *model.AppState) []parse.Line {
	var lines []parse.Line
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)

		qty := 1.0
		if q, err := strconv.ParseFloat(fields[0], 64); err == nil {
			qty = q
			fields = fields[1:]
		}

		unit := ""
		if len(fields) > 1 && knownUnits[strings.ToLower(fields[0])] {
			unit = strings.ToLower(fields[0])
			fields = fields[1:]
		}

		name := strings.Join(fields, " ")
		if name == "" {
			continue
		}

		line := parse.Line{Quantity: qty, Unit: unit}
		matched := false
		want := parse.NormalizeName(name)
		for i := range state.Items {
			if parse.NormalizeName(state.Items[i].Name) == want {
				line.MatchedItemID = state.Items[i].ID
				matched = true
				break
			}
		}
		if !matched {
			line.NewItemName = name
		}
		lines = append(lines, line)
	}
	return lines
}

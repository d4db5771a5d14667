package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mycitadel/citadel/internal/amount"
	"github.com/mycitadel/citadel/internal/balance"
)

func newBalanceCommand(flags *globalFlags) *cobra.Command {
	var by string
	var assetIDs []string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show wallet balances grouped by address, asset or outpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(flags)
			if err != nil {
				return err
			}
			defer func() { _ = r.logger.Sync() }()

			ids := assetIDs
			if len(ids) == 0 {
				ids = r.catalog.Snapshot().IDs()
			}
			allocs, err := balance.Collect(cmd.Context(), r.wallet, ids)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch by {
			case "address":
				groups, err := balance.ByAddress(allocs)
				if err != nil {
					return err
				}
				for _, g := range groups {
					fmt.Fprintf(w, "%s\t%s\t(%d outpoints)\n", g.Address, g.Total, len(g.Allocations))
				}
			case "asset":
				totals, err := balance.ByAsset(allocs)
				if err != nil {
					return err
				}
				printAssetTotals(w, totals)
			case "outpoint":
				groups, err := balance.ByOutpoint(allocs)
				if err != nil {
					return err
				}
				for _, g := range groups {
					for _, a := range g.Amounts {
						fmt.Fprintf(w, "%s\t%s\t%s\n", g.OutPoint, g.Address, a)
					}
				}
			default:
				return fmt.Errorf("unknown grouping %q: want address, asset or outpoint", by)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", "address", "grouping: address, asset or outpoint")
	cmd.Flags().StringSliceVar(&assetIDs, "asset", nil, "restrict to these asset ids")

	return cmd
}

func printAssetTotals(w io.Writer, totals map[string]amount.Amount) {
	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(w, "%s\t%s\n", id, totals[id])
	}
}

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mycitadel/citadel/internal/classify"
	"github.com/mycitadel/citadel/internal/inbox"
	"github.com/mycitadel/citadel/internal/wallet"
)

func newInboxCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inbox",
		Short: "Classify pending inbox files and import what they contain",
		Long: `Reads every .txt file in inbox/, one item per line. Bitcoin addresses join
the receiving pool and RGB20 asset genesis data joins the asset catalog.
Files whose items were all imported move to inbox/processed/.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(flags)
			if err != nil {
				return err
			}
			defer func() { _ = r.logger.Sync() }()

			outcomes, err := inbox.NewProcessor(r.root, r.inboxRegistry(), r.logger).Run(cmd.Context())
			for _, o := range outcomes {
				status := "skipped"
				if o.Handled {
					status = "imported"
				}
				detail := o.Detail
				if detail == "" {
					detail = o.Report
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s:%d\t%s\t%s\t%s\n", o.File, o.Line, o.Kind, status, detail)
			}
			return err
		},
	}
}

func (r *repo) inboxRegistry() *inbox.Registry {
	reg := inbox.NewRegistry()

	reg.Register(classify.KindBitcoinAddress, func(_ context.Context, res classify.Result) (string, error) {
		p, err := r.poolAddress(res.Data.(classify.BitcoinAddress))
		if err != nil {
			return "", err
		}
		added, err := r.wallet.AddAddresses([]wallet.PoolAddress{p})
		if err != nil {
			return "", err
		}
		if added == 0 {
			return "already in pool", nil
		}
		return "added to address pool", nil
	})

	reg.Register(classify.KindRGB20Asset, func(_ context.Context, res classify.Result) (string, error) {
		g := res.Data.(classify.RGB20Asset).Asset
		next := r.catalog.Snapshot().WithGenesis(g)
		if err := next.Save(r.root); err != nil {
			return "", err
		}
		if err := r.catalog.Reload(r.root); err != nil {
			return "", err
		}
		r.logger.Info("asset imported", zap.String("asset", g.AssetID()), zap.String("ticker", g.Ticker))
		return "added " + g.Ticker + " to catalog", nil
	})

	return reg
}

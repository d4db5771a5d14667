package commands

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/cobra"

	"github.com/mycitadel/citadel/internal/classify"
	"github.com/mycitadel/citadel/internal/wallet"
)

func newAddressCommand(flags *globalFlags) *cobra.Command {
	addressCmd := &cobra.Command{
		Use:   "address",
		Short: "Manage the receiving address pool",
	}

	addressCmd.AddCommand(&cobra.Command{
		Use:   "add <address>...",
		Short: "Add receiving addresses to the pool",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(flags)
			if err != nil {
				return err
			}
			defer func() { _ = r.logger.Sync() }()

			pool := make([]wallet.PoolAddress, 0, len(args))
			for _, arg := range args {
				res := classify.Classify(arg)
				addr, ok := res.Data.(classify.BitcoinAddress)
				if !ok {
					return fmt.Errorf("%q is a %s, not a Bitcoin address", arg, res.Kind().Label())
				}
				p, err := r.poolAddress(addr)
				if err != nil {
					return err
				}
				pool = append(pool, p)
			}

			added, err := r.wallet.AddAddresses(pool)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d of %d addresses\n", added, len(pool))
			return nil
		},
	})

	addressCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the address pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(flags)
			if err != nil {
				return err
			}
			pool, err := r.wallet.Addresses()
			if err != nil {
				return err
			}
			for _, a := range pool {
				format, state := "segwit", "unused"
				if a.Legacy {
					format = "legacy"
				}
				if a.Used {
					state = "used"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", a.Address, format, state)
			}
			return nil
		},
	})

	return addressCmd
}

// poolAddress checks that addr belongs to the wallet's network and converts
// it to a pool entry. P2PKH and P2SH addresses are the legacy format.
func (r *repo) poolAddress(addr classify.BitcoinAddress) (wallet.PoolAddress, error) {
	decoded, err := btcutil.DecodeAddress(addr.Address, r.params)
	if err != nil || !decoded.IsForNet(r.params) {
		return wallet.PoolAddress{}, fmt.Errorf("address %s is not valid on %s", addr.Address, r.params.Name)
	}
	legacy := addr.Type == classify.AddressP2PKH || addr.Type == classify.AddressP2SH
	return wallet.PoolAddress{Address: addr.Address, Legacy: legacy}, nil
}

package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mycitadel/citadel/internal/amount"
	"github.com/mycitadel/citadel/internal/model"
)

func newAmountCommand() *cobra.Command {
	var precision uint8

	amountCmd := &cobra.Command{
		Use:   "amount",
		Short: "Convert between accounting and atomic amounts",
	}
	amountCmd.PersistentFlags().Uint8Var(&precision, "precision", 8, "asset decimal places")

	amountCmd.AddCommand(&cobra.Command{
		Use:   "to-atomic <value>",
		Short: "Convert an accounting value such as 0,0015 to atomic units",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := amount.ToAtomic(args[0], precision)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	})

	amountCmd.AddCommand(&cobra.Command{
		Use:   "to-accounting <atomic>",
		Short: "Convert atomic units to an accounting value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if precision > model.MaxPrecision {
				return fmt.Errorf("%w: precision %d exceeds %d", amount.ErrInvalidAmount, precision, model.MaxPrecision)
			}
			v, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("%w: %v", amount.ErrInvalidAmount, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), amount.ToAccounting(v, precision).String())
			return nil
		},
	})

	return amountCmd
}

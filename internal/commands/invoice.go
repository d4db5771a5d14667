package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/mycitadel/citadel/internal/amount"
	"github.com/mycitadel/citadel/internal/codec"
	"github.com/mycitadel/citadel/internal/invoice"
	"github.com/mycitadel/citadel/internal/invoicelog"
)

func newInvoiceCommand(flags *globalFlags) *cobra.Command {
	invoiceCmd := &cobra.Command{
		Use:   "invoice",
		Short: "Create and read payment requests",
	}
	invoiceCmd.AddCommand(newInvoiceNewCommand(flags), newInvoiceParseCommand(flags), newInvoiceLogCommand(flags))
	return invoiceCmd
}

type invoiceFlags struct {
	asset      string
	amount     string
	unit       string
	currency   string
	perItem    bool
	quantity   uint32
	legacy     bool
	repeat     string
	every      string
	frequency  uint8
	expiresIn  time.Duration
	merchant   string
	purpose    string
	details    string
	volatility bool
}

func newInvoiceNewCommand(flags *globalFlags) *cobra.Command {
	f := &invoiceFlags{}

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a payment request in the smallest form that carries it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(flags)
			if err != nil {
				return err
			}
			defer func() { _ = r.logger.Sync() }()

			cfg, err := f.config(cmd, r)
			if err != nil {
				return err
			}

			opts := []invoice.Option{invoice.WithLogger(r.logger)}
			if len(r.cfg.Invoice.Rates) > 0 {
				rates, err := invoice.ParseRates(r.cfg.Invoice.Rates)
				if err != nil {
					return err
				}
				opts = append(opts, invoice.WithRateSource(rates))
			}

			renderer := invoice.NewRenderer(r.wallet, r.catalog.Snapshot(), opts...)
			out, err := renderer.Render(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			if err := invoicelog.Append(r.root, []invoicelog.Entry{{
				Timestamp:      time.Now().UTC(),
				Representation: out.Representation.String(),
				AssetID:        out.Amount.Asset.ID,
				AtomicAmount:   out.Amount.Atomic,
				Address:        out.Address,
				Text:           out.Text,
			}}); err != nil {
				return fmt.Errorf("logging invoice: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), out.Text)
			if !out.Amount.IsZero() {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s for %s\n", out.Representation, out.Amount)
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.asset, "asset", "", "asset id (default: the native asset)")
	fl.StringVar(&f.amount, "amount", "", "requested amount; omit to let the payer choose")
	fl.StringVar(&f.unit, "unit", "", "unit of --amount: accounting, atomic or fiat (default from config)")
	fl.StringVar(&f.currency, "currency", "", "fiat currency (default from config)")
	fl.BoolVar(&f.perItem, "per-item", false, "treat --amount as a per-item price")
	fl.Uint32Var(&f.quantity, "quantity", 1, "default item quantity with --per-item")
	fl.BoolVar(&f.legacy, "legacy", false, "use a legacy address (default from config)")
	fl.StringVar(&f.repeat, "repeat", "single", "single, multiple or recurrent")
	fl.StringVar(&f.every, "every", "month", "recurrence interval with --repeat recurrent: second, minute, hour, day, week, month or year")
	fl.Uint8Var(&f.frequency, "frequency", 1, "intervals between payments with --repeat recurrent")
	fl.DurationVar(&f.expiresIn, "expires-in", 0, "expiry relative to now")
	fl.StringVar(&f.merchant, "merchant", "", "merchant name")
	fl.StringVar(&f.purpose, "purpose", "", "payment purpose")
	fl.StringVar(&f.details, "details", "", "URL with order details")
	fl.BoolVar(&f.volatility, "volatility", false, "protect a fiat price against exchange rate moves")

	return cmd
}

func (f *invoiceFlags) config(cmd *cobra.Command, r *repo) (invoice.Config, error) {
	cfg := invoice.Config{
		AssetID:      f.asset,
		LegacyFormat: r.cfg.Wallet.LegacyFormat,
		AmountText:   f.amount,
		Merchant:     f.merchant,
		UseMerchant:  f.merchant != "",
		Purpose:      f.purpose,
		UsePurpose:   f.purpose != "",
		DetailsURL:   f.details,
		UseDetails:   f.details != "",
	}
	if cfg.AssetID == "" {
		cfg.AssetID = r.catalog.Snapshot().NativeAssetID()
	}
	if cmd.Flags().Changed("legacy") {
		cfg.LegacyFormat = f.legacy
	}

	unitName := r.cfg.Invoice.Unit
	if f.unit != "" {
		unitName = f.unit
	}
	currency := r.cfg.Invoice.Currency
	if f.currency != "" {
		currency = f.currency
	}
	switch unitName {
	case "", "accounting":
		cfg.Unit = invoice.UnitOfAccount{Kind: invoice.UnitAccounting}
	case "atomic":
		cfg.Unit = invoice.UnitOfAccount{Kind: invoice.UnitAtomic}
	case "fiat":
		cfg.Unit = invoice.UnitOfAccount{Kind: invoice.UnitFiat, Currency: currency}
	default:
		return invoice.Config{}, fmt.Errorf("unknown unit %q", unitName)
	}

	switch {
	case f.perItem:
		cfg.Amount = invoice.AmountPolicy{Kind: invoice.AmountPerItem, Quantity: codec.Quantity{Default: f.quantity}}
	case f.amount != "":
		cfg.Amount = invoice.AmountPolicy{Kind: invoice.AmountFixed}
	}

	repeat, err := f.repeatPolicy()
	if err != nil {
		return invoice.Config{}, err
	}
	cfg.Repeat = repeat

	if f.expiresIn > 0 {
		cfg.UseExpiry = true
		cfg.Expiry = time.Now().Add(f.expiresIn).UTC().Truncate(time.Second)
	}

	if f.volatility {
		cfg.Volatility = invoice.Volatility{
			Enabled:      true,
			ToleranceBps: r.cfg.Invoice.ToleranceBps,
			PriceSource:  r.cfg.Invoice.PriceSource,
			Currency:     currency,
		}
	}
	return cfg, nil
}

var intervals = map[string]codec.Interval{
	"second": codec.IntervalSecond,
	"minute": codec.IntervalMinute,
	"hour":   codec.IntervalHour,
	"day":    codec.IntervalDay,
	"week":   codec.IntervalWeek,
	"month":  codec.IntervalMonth,
	"year":   codec.IntervalYear,
}

func (f *invoiceFlags) repeatPolicy() (codec.Repeat, error) {
	switch f.repeat {
	case "single":
		return codec.Repeat{}, nil
	case "multiple":
		return codec.Repeat{Kind: codec.RepeatMultiple}, nil
	case "recurrent":
		interval, ok := intervals[f.every]
		if !ok {
			return codec.Repeat{}, fmt.Errorf("unknown interval %q", f.every)
		}
		if f.frequency == 0 {
			return codec.Repeat{}, fmt.Errorf("frequency must be at least 1")
		}
		return codec.Repeat{Kind: codec.RepeatRecurrent, Interval: interval, Frequency: f.frequency}, nil
	default:
		return codec.Repeat{}, fmt.Errorf("unknown repeat policy %q", f.repeat)
	}
}

func newInvoiceParseCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <text>",
		Short: "Read a payment request: address, BIP-21 URI, lightning or structured invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(flags)
			if err != nil {
				return err
			}
			defer func() { _ = r.logger.Sync() }()

			inv, err := invoice.NewParser(r.catalog.Snapshot(), invoice.WithLogger(r.logger)).ParseIncoming(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "source: %s\n", inv.Source)
			fmt.Fprintf(w, "beneficiary: %s\n", inv.Beneficiary)
			if inv.Asset != nil {
				fmt.Fprintf(w, "asset: %s (%s)\n", inv.Asset.Ticker, inv.Asset.ID)
			}
			if inv.Amount != nil {
				fmt.Fprintf(w, "amount: %s\n", inv.Amount)
			}
			if inv.Merchant != "" {
				fmt.Fprintf(w, "merchant: %s\n", inv.Merchant)
			}
			if inv.Purpose != "" {
				fmt.Fprintf(w, "purpose: %s\n", inv.Purpose)
			}
			if inv.Expiry != nil {
				fmt.Fprintf(w, "expiry: %s\n", inv.Expiry.UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newInvoiceLogCommand(flags *globalFlags) *cobra.Command {
	var filter invoicelog.Filter
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "log",
		Short: "List issued payment requests and the amounts requested per asset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(flags)
			if err != nil {
				return err
			}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}

			entries, err := invoicelog.Query(r.root, filter)
			if err != nil {
				return err
			}

			snapshot := r.catalog.Snapshot()
			w := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s", e.Timestamp.Format(time.RFC3339), e.Representation, e.Address,
					displayAmount(snapshot, e.AssetID, e.AtomicAmount))
				rec, ok, err := e.Record()
				if err != nil {
					return err
				}
				if ok && rec.Merchant != "" {
					fmt.Fprintf(w, "\tmerchant: %s", rec.Merchant)
				}
				if ok && rec.Purpose != "" {
					fmt.Fprintf(w, "\tpurpose: %s", rec.Purpose)
				}
				fmt.Fprintln(w)
			}

			totals, err := invoicelog.RequestedTotals(entries)
			if err != nil {
				return err
			}
			ids := make([]string, 0, len(totals))
			for id := range totals {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Fprintf(w, "total\t%s\n", displayAmount(snapshot, id, totals[id]))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.AssetID, "asset", "", "only requests for this asset id")
	cmd.Flags().StringVar(&filter.Representation, "kind", "", "only this representation: address, uri or invoice")
	cmd.Flags().StringVar(&filter.Address, "address", "", "only requests handed out for this address")
	cmd.Flags().DurationVar(&since, "since", 0, "only requests issued within this duration")

	return cmd
}

// displayAmount renders atomic units of an asset, falling back to the raw
// count when the asset left the catalog.
func displayAmount(assets invoice.Catalog, assetID string, atomic uint64) string {
	if a, ok := assets.Lookup(assetID); ok {
		return amount.New(atomic, a).String()
	}
	return fmt.Sprintf("%d atomic %s", atomic, assetID)
}

package invoice

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mycitadel/citadel/internal/amount"
	"github.com/mycitadel/citadel/internal/codec"
	"github.com/mycitadel/citadel/internal/model"
)

// AddressSource hands out fresh receiving addresses.
type AddressSource interface {
	NextReceivingAddress(ctx context.Context, legacy bool) (string, error)
}

// Catalog resolves asset ids. Implementations may be updated concurrently;
// callers read each value once per operation.
type Catalog interface {
	Lookup(id string) (model.AssetDescriptor, bool)
	NativeAssetID() string
}

// RateSource prices one accounting unit of asset in currency.
type RateSource interface {
	Rate(ctx context.Context, source, currency string, asset model.AssetDescriptor) (decimal.Decimal, error)
}

// Rendered is a generated payment request.
type Rendered struct {
	Representation Representation
	Text           string
	Address        string
	Amount         amount.Amount
}

// Renderer generates payment request strings.
type Renderer struct {
	addresses AddressSource
	catalog   Catalog
	rates     RateSource
	logger    *zap.Logger
}

// Option configures a Renderer or Parser.
type Option func(*options)

type options struct {
	rates  RateSource
	logger *zap.Logger
}

// WithRateSource enables fiat-denominated amounts.
func WithRateSource(r RateSource) Option {
	return func(o *options) { o.rates = r }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewRenderer creates a Renderer over the wallet collaborators.
func NewRenderer(addresses AddressSource, catalog Catalog, opts ...Option) *Renderer {
	o := buildOptions(opts)
	return &Renderer{addresses: addresses, catalog: catalog, rates: o.rates, logger: o.logger}
}

// Render resolves cfg against the catalog, obtains a fresh address and
// formats the request in the representation cfg requires.
func (r *Renderer) Render(ctx context.Context, cfg Config) (Rendered, error) {
	nativeID := r.catalog.NativeAssetID()
	asset, ok := r.catalog.Lookup(cfg.AssetID)
	if !ok {
		return Rendered{}, fmt.Errorf("%w: unknown asset %q", ErrNoAssetSelected, cfg.AssetID)
	}
	rep := cfg.Representation(nativeID)

	var amt amount.Amount
	if cfg.Amount.Kind != AmountArbitrary {
		atomic, err := r.resolveAmount(ctx, cfg, asset)
		if err != nil {
			return Rendered{}, fmt.Errorf("resolving amount: %w", err)
		}
		amt = amount.New(atomic, asset)
	} else {
		amt = amount.New(0, asset)
	}

	addr, err := r.addresses.NextReceivingAddress(ctx, cfg.LegacyFormat)
	if err != nil {
		r.logger.Warn("address generation failed", zap.Error(err))
		return Rendered{}, fmt.Errorf("%w: %w", ErrWalletUnavailable, err)
	}

	out := Rendered{Representation: rep, Address: addr, Amount: amt}
	switch rep {
	case BareAddress:
		out.Text = addr
	case URIAddress:
		out.Text = "bitcoin:" + addr + "?amount=" + amt.Accounting().String()
	default:
		rec := record(cfg, addr, asset, amt.Atomic)
		if rec.AssetID == nativeID {
			rec.AssetID = ""
		}
		s, err := codec.EncodeInvoice(rec)
		if err != nil {
			return Rendered{}, fmt.Errorf("encoding invoice: %w", err)
		}
		out.Text = s
	}

	r.logger.Debug("rendered payment request",
		zap.Stringer("representation", rep),
		zap.String("asset", asset.ID),
		zap.Uint64("atomic", amt.Atomic),
	)
	return out, nil
}

func (r *Renderer) resolveAmount(ctx context.Context, cfg Config, asset model.AssetDescriptor) (uint64, error) {
	switch cfg.Unit.Kind {
	case UnitAtomic:
		return amount.ToAtomic(cfg.AmountText, 0)
	case UnitFiat:
		if r.rates == nil {
			return 0, ErrNoRateSource
		}
		fiat, err := amount.ParseDecimal(cfg.AmountText)
		if err != nil {
			return 0, err
		}
		rate, err := r.rates.Rate(ctx, cfg.Volatility.PriceSource, cfg.Unit.Currency, asset)
		if err != nil {
			return 0, fmt.Errorf("fetching %s rate: %w", cfg.Unit.Currency, err)
		}
		if !rate.IsPositive() {
			return 0, fmt.Errorf("%w: non-positive %s rate %s", amount.ErrInvalidAmount, cfg.Unit.Currency, rate)
		}
		return amount.DecimalToAtomic(fiat.Div(rate), asset.Precision)
	default:
		return amount.ToAtomic(cfg.AmountText, asset.Precision)
	}
}

func record(cfg Config, addr string, asset model.AssetDescriptor, atomic uint64) codec.InvoiceRecord {
	rec := codec.InvoiceRecord{
		Beneficiary: addr,
		AssetID:     asset.ID,
		Amount:      atomic,
		Repeat:      cfg.Repeat,
	}
	if cfg.UseMerchant {
		rec.Merchant = cfg.Merchant
	}
	if cfg.UsePurpose {
		rec.Purpose = cfg.Purpose
	}
	if cfg.UseExpiry {
		rec.Expiry = cfg.Expiry
	}
	if cfg.UseDetails {
		rec.DetailsURL = cfg.DetailsURL
	}
	if cfg.Amount.Kind == AmountPerItem {
		q := cfg.Amount.Quantity
		rec.Quantity = &q
	}
	if cfg.Volatility.Enabled {
		rec.Volatility = &codec.Volatility{
			ToleranceBps: cfg.Volatility.ToleranceBps,
			PriceSource:  cfg.Volatility.PriceSource,
			Currency:     cfg.Volatility.Currency,
		}
	}
	return rec
}

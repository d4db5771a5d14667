package invoice

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mycitadel/citadel/internal/model"
)

// StaticRates is a RateSource backed by fixed "TICKER/CURRENCY" quotes.
// The price source name is ignored.
type StaticRates map[string]decimal.Decimal

// ParseRates builds StaticRates from config quotes such as "BTC/USD": "60000".
func ParseRates(quotes map[string]string) (StaticRates, error) {
	rates := make(StaticRates, len(quotes))
	for pair, text := range quotes {
		ticker, currency, ok := strings.Cut(pair, "/")
		if !ok || ticker == "" || currency == "" {
			return nil, fmt.Errorf("rate pair %q: want TICKER/CURRENCY", pair)
		}
		d, err := decimal.NewFromString(strings.TrimSpace(text))
		if err != nil {
			return nil, fmt.Errorf("rate %s: %w", pair, err)
		}
		if !d.IsPositive() {
			return nil, fmt.Errorf("rate %s must be positive", pair)
		}
		rates[rateKey(ticker, currency)] = d
	}
	return rates, nil
}

// Rate implements RateSource.
func (r StaticRates) Rate(_ context.Context, _, currency string, asset model.AssetDescriptor) (decimal.Decimal, error) {
	d, ok := r[rateKey(asset.Ticker, currency)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s/%s", ErrNoRateSource, asset.Ticker, currency)
	}
	return d, nil
}

func rateKey(ticker, currency string) string {
	return strings.ToUpper(ticker) + "/" + strings.ToUpper(currency)
}

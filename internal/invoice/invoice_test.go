package invoice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycitadel/citadel/internal/amount"
	"github.com/mycitadel/citadel/internal/classify"
	"github.com/mycitadel/citadel/internal/codec"
	"github.com/mycitadel/citadel/internal/model"
)

const (
	testAddress = "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
	legacyAddr  = "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2"
)

var (
	btc  = model.AssetDescriptor{ID: "btc", Ticker: "BTC", Name: "Bitcoin", Precision: 8, IsNative: true, Category: model.AssetCategoryCurrency}
	usdt = model.AssetDescriptor{ID: "rgb1usdt", Ticker: "USDT", Name: "Tether", Precision: 6, Category: model.AssetCategoryStablecoin}
)

type fakeCatalog map[string]model.AssetDescriptor

func (c fakeCatalog) Lookup(id string) (model.AssetDescriptor, bool) {
	a, ok := c[id]
	return a, ok
}

func (c fakeCatalog) NativeAssetID() string { return btc.ID }

func testCatalog() fakeCatalog {
	return fakeCatalog{btc.ID: btc, usdt.ID: usdt}
}

type fakeAddresses struct {
	err    error
	legacy []bool
}

func (f *fakeAddresses) NextReceivingAddress(_ context.Context, legacy bool) (string, error) {
	f.legacy = append(f.legacy, legacy)
	if f.err != nil {
		return "", f.err
	}
	if legacy {
		return legacyAddr, nil
	}
	return testAddress, nil
}

type fixedRate decimal.Decimal

func (r fixedRate) Rate(context.Context, string, string, model.AssetDescriptor) (decimal.Decimal, error) {
	return decimal.Decimal(r), nil
}

func plainConfig() Config {
	return Config{AssetID: btc.ID}
}

func TestRepresentation_Scenario(t *testing.T) {
	cfg := plainConfig()
	assert.Equal(t, BareAddress, cfg.Representation(btc.ID))

	cfg.UseExpiry = true
	assert.Equal(t, StructuredInvoice, cfg.Representation(btc.ID))
}

func TestRepresentation_FixedAmountIsURI(t *testing.T) {
	cfg := plainConfig()
	cfg.Amount.Kind = AmountFixed
	assert.Equal(t, URIAddress, cfg.Representation(btc.ID))
}

func TestRepresentation_EscalationMonotonic(t *testing.T) {
	triggers := map[string]func(*Config){
		"expiry":     func(c *Config) { c.UseExpiry = true },
		"purpose":    func(c *Config) { c.UsePurpose = true },
		"merchant":   func(c *Config) { c.UseMerchant = true },
		"details":    func(c *Config) { c.UseDetails = true },
		"volatility": func(c *Config) { c.Volatility.Enabled = true },
		"multiple":   func(c *Config) { c.Repeat.Kind = codec.RepeatMultiple },
		"recurrent":  func(c *Config) { c.Repeat = codec.Repeat{Kind: codec.RepeatRecurrent, Interval: codec.IntervalMonth, Frequency: 1} },
		"per item":   func(c *Config) { c.Amount.Kind = AmountPerItem },
		"non-native": func(c *Config) { c.AssetID = usdt.ID },
	}
	bases := map[string]Config{
		"bare": plainConfig(),
		"uri":  {AssetID: btc.ID, Amount: AmountPolicy{Kind: AmountFixed}},
	}

	for baseName, base := range bases {
		for name, apply := range triggers {
			t.Run(baseName+"/"+name, func(t *testing.T) {
				cfg := base
				apply(&cfg)
				assert.Equal(t, StructuredInvoice, cfg.Representation(btc.ID))

				// A second trigger never downgrades.
				for _, other := range triggers {
					more := cfg
					other(&more)
					assert.Equal(t, StructuredInvoice, more.Representation(btc.ID))
				}
			})
		}
	}
}

func TestRepresentation_String(t *testing.T) {
	assert.Equal(t, "address", BareAddress.String())
	assert.Equal(t, "uri", URIAddress.String())
	assert.Equal(t, "invoice", StructuredInvoice.String())
}

func TestNextUnitOfAccount(t *testing.T) {
	u := UnitOfAccount{Kind: UnitAccounting, Currency: "EUR"}

	u = NextUnitOfAccount(u, btc)
	assert.Equal(t, UnitAtomic, u.Kind)
	u = NextUnitOfAccount(u, btc)
	assert.Equal(t, UnitFiat, u.Kind)
	assert.Equal(t, "EUR", u.Currency)
	u = NextUnitOfAccount(u, btc)
	assert.Equal(t, UnitAccounting, u.Kind)

	u = UnitOfAccount{Kind: UnitAccounting}
	for i := 0; i < 10; i++ {
		u = NextUnitOfAccount(u, usdt)
		assert.NotEqual(t, UnitAtomic, u.Kind)
	}
}

func TestUnitName(t *testing.T) {
	assert.Equal(t, "BTC", UnitName(UnitOfAccount{Kind: UnitAccounting}, btc, "mainnet"))
	assert.Equal(t, "sats", UnitName(UnitOfAccount{Kind: UnitAtomic}, btc, "mainnet"))
	assert.Equal(t, "tsats", UnitName(UnitOfAccount{Kind: UnitAtomic}, btc, "testnet"))
	assert.Equal(t, "USDT", UnitName(UnitOfAccount{Kind: UnitAtomic}, usdt, "mainnet"))
	assert.Equal(t, "EUR", UnitName(UnitOfAccount{Kind: UnitFiat, Currency: "EUR"}, usdt, "mainnet"))
}

func TestRender_BareAndURI(t *testing.T) {
	wallet := &fakeAddresses{}
	r := NewRenderer(wallet, testCatalog())

	out, err := r.Render(context.Background(), plainConfig())
	require.NoError(t, err)
	assert.Equal(t, BareAddress, out.Representation)
	assert.Equal(t, testAddress, out.Text)

	cfg := plainConfig()
	cfg.LegacyFormat = true
	cfg.Amount.Kind = AmountFixed
	cfg.AmountText = "0,0015"
	out, err = r.Render(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, URIAddress, out.Representation)
	assert.Equal(t, "bitcoin:"+legacyAddr+"?amount=0.0015", out.Text)
	assert.Equal(t, uint64(150_000), out.Amount.Atomic)
	assert.Equal(t, []bool{false, true}, wallet.legacy)
}

func TestRender_Structured(t *testing.T) {
	r := NewRenderer(&fakeAddresses{}, testCatalog())
	expiry := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)

	cfg := Config{
		AssetID:     usdt.ID,
		Amount:      AmountPolicy{Kind: AmountPerItem, Quantity: codec.Quantity{Min: 1, Max: 5, Default: 1}},
		AmountText:  "12.5",
		UseExpiry:   true,
		Expiry:      expiry,
		UseMerchant: true,
		Merchant:    "Corner Shop",
		Purpose:     "ignored while UsePurpose is off",
	}
	out, err := r.Render(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, StructuredInvoice, out.Representation)

	rec, err := codec.DecodeInvoice(out.Text)
	require.NoError(t, err)
	assert.Equal(t, testAddress, rec.Beneficiary)
	assert.Equal(t, usdt.ID, rec.AssetID)
	assert.Equal(t, uint64(12_500_000), rec.Amount)
	assert.Equal(t, "Corner Shop", rec.Merchant)
	assert.Empty(t, rec.Purpose)
	assert.Equal(t, expiry, rec.Expiry)
	require.NotNil(t, rec.Quantity)
	assert.Equal(t, uint32(5), rec.Quantity.Max)
	assert.Nil(t, rec.Volatility)
}

func TestRender_NativeStructuredOmitsAsset(t *testing.T) {
	r := NewRenderer(&fakeAddresses{}, testCatalog())
	cfg := plainConfig()
	cfg.UsePurpose = true
	cfg.Purpose = "donation"

	out, err := r.Render(context.Background(), cfg)
	require.NoError(t, err)
	rec, err := codec.DecodeInvoice(out.Text)
	require.NoError(t, err)
	assert.Empty(t, rec.AssetID)
	assert.Zero(t, rec.Amount)
	assert.Equal(t, "donation", rec.Purpose)
}

func TestRender_Units(t *testing.T) {
	cfg := plainConfig()
	cfg.Amount.Kind = AmountFixed

	r := NewRenderer(&fakeAddresses{}, testCatalog())
	cfg.Unit = UnitOfAccount{Kind: UnitAtomic}
	cfg.AmountText = "1500"
	out, err := r.Render(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, uint64(1500), out.Amount.Atomic)

	cfg.Unit = UnitOfAccount{Kind: UnitFiat, Currency: "USD"}
	cfg.AmountText = "30"
	_, err = r.Render(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrNoRateSource)

	r = NewRenderer(&fakeAddresses{}, testCatalog(), WithRateSource(fixedRate(decimal.NewFromInt(60_000))))
	out, err = r.Render(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, uint64(50_000), out.Amount.Atomic)
}

func TestRender_Errors(t *testing.T) {
	ctx := context.Background()

	r := NewRenderer(&fakeAddresses{}, testCatalog())
	_, err := r.Render(ctx, Config{AssetID: "rgb1missing"})
	assert.ErrorIs(t, err, ErrNoAssetSelected)

	cause := errors.New("vault locked")
	r = NewRenderer(&fakeAddresses{err: cause}, testCatalog())
	_, err = r.Render(ctx, plainConfig())
	assert.ErrorIs(t, err, ErrWalletUnavailable)
	assert.ErrorIs(t, err, cause)

	r = NewRenderer(&fakeAddresses{}, testCatalog())
	cfg := plainConfig()
	cfg.Amount.Kind = AmountFixed
	cfg.AmountText = "1.2.3"
	_, err = r.Render(ctx, cfg)
	assert.ErrorIs(t, err, amount.ErrInvalidAmount)

	cfg.AmountText = "999999999999"
	_, err = r.Render(ctx, cfg)
	assert.ErrorIs(t, err, amount.ErrAmountOverflow)
}

func TestParseIncoming_Payable(t *testing.T) {
	p := NewParser(testCatalog())

	inv, err := p.ParseIncoming("bitcoin:" + testAddress + "?amount=0.5&label=Alice&message=rent")
	require.NoError(t, err)
	assert.Equal(t, classify.KindBitcoinAddress, inv.Source)
	assert.Equal(t, testAddress, inv.Beneficiary)
	require.NotNil(t, inv.Amount)
	assert.Equal(t, uint64(50_000_000), inv.Amount.Atomic)
	assert.Equal(t, "Alice", inv.Merchant)
	assert.Equal(t, "rent", inv.Purpose)
	assert.Nil(t, inv.Expiry)

	inv, err = p.ParseIncoming(testAddress)
	require.NoError(t, err)
	assert.Nil(t, inv.Amount)
	require.NotNil(t, inv.Asset)
	assert.Equal(t, btc.ID, inv.Asset.ID)

	bolt11 := "lnbc2500u1pvjluezpp5qqqsyqcyq5rqwzqfqqqsyqcyq5rqwzqfqqqsyqcyq5rqwzqfqypqdq5xysxxatsyp3k7enxv4jsxqzpuaztrnwngzn3kdzw5hydlzf03qdgm2hdq27cqv3agm2awhz5se903vruatfhq77w3ls4evs3ch9zw97j25emudupq63nyw24cg27h2rspfj9srp"
	inv, err = p.ParseIncoming(bolt11)
	require.NoError(t, err)
	assert.Equal(t, classify.KindBolt11Invoice, inv.Source)
	require.NotNil(t, inv.Amount)
	assert.Equal(t, uint64(250_000), inv.Amount.Atomic)
	assert.Equal(t, "1 cup coffee", inv.Purpose)
	require.NotNil(t, inv.Expiry)
	assert.Equal(t, time.Unix(1496314658+60, 0).UTC(), *inv.Expiry)
}

func TestParseIncoming_RenderedRoundTrip(t *testing.T) {
	cat := testCatalog()
	r := NewRenderer(&fakeAddresses{}, cat)
	expiry := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	out, err := r.Render(context.Background(), Config{
		AssetID:    usdt.ID,
		Amount:     AmountPolicy{Kind: AmountFixed},
		AmountText: "10",
		UseExpiry:  true,
		Expiry:     expiry,
		UsePurpose: true,
		Purpose:    "invoice 7",
	})
	require.NoError(t, err)

	inv, err := NewParser(cat).ParseIncoming(out.Text)
	require.NoError(t, err)
	assert.Equal(t, classify.KindStructuredInvoice, inv.Source)
	assert.Equal(t, testAddress, inv.Beneficiary)
	require.NotNil(t, inv.Asset)
	assert.Equal(t, usdt.ID, inv.Asset.ID)
	require.NotNil(t, inv.Amount)
	assert.Equal(t, "10 USDT", inv.Amount.String())
	assert.Equal(t, "invoice 7", inv.Purpose)
	require.NotNil(t, inv.Expiry)
	assert.Equal(t, expiry, *inv.Expiry)
}

func TestParseIncoming_Failures(t *testing.T) {
	p := NewParser(testCatalog())

	_, err := p.ParseIncoming("xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhePY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8")
	assert.ErrorIs(t, err, ErrNotPayable)
	var np *NotPayableError
	require.ErrorAs(t, err, &np)
	assert.Equal(t, classify.KindExtendedPublicKey, np.Kind)
	assert.Contains(t, err.Error(), "Extended public key")

	_, err = p.ParseIncoming("not a payment")
	var re *RecognitionError
	require.ErrorAs(t, err, &re)
	assert.NotEmpty(t, re.Report)
	assert.NotErrorIs(t, err, ErrNotPayable)

	s, err := codec.EncodeInvoice(codec.InvoiceRecord{Beneficiary: testAddress, AssetID: "rgb1unknown", Amount: 5})
	require.NoError(t, err)
	_, err = p.ParseIncoming(s)
	assert.ErrorIs(t, err, ErrNoAssetSelected)
}

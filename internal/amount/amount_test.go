package amount

import (
	"math"
	"math/rand"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycitadel/citadel/internal/model"
)

var btc = model.AssetDescriptor{ID: "btc", Ticker: "BTC", Name: "Bitcoin", Precision: 8, IsNative: true}

func TestToAtomic(t *testing.T) {
	tests := []struct {
		text      string
		precision uint8
		want      uint64
	}{
		{"0.00000001", 8, 1},
		{"", 8, 0},
		{"   ", 8, 0},
		{"1", 8, 100_000_000},
		{"1,5", 8, 150_000_000},
		{".5", 2, 50},
		{"7.", 0, 7},
		{"0.123456789", 8, 12_345_678},
		{"1.999", 0, 1},
		{"  42  ", 0, 42},
		{"18446744073709551615", 0, math.MaxUint64},
		{"184467440737.09551615", 8, math.MaxUint64},
	}
	for _, tt := range tests {
		got, err := ToAtomic(tt.text, tt.precision)
		require.NoError(t, err, "ToAtomic(%q, %d)", tt.text, tt.precision)
		assert.Equal(t, tt.want, got, "ToAtomic(%q, %d)", tt.text, tt.precision)
	}
}

func TestToAtomic_Overflow(t *testing.T) {
	tests := []struct {
		text      string
		precision uint8
	}{
		{"99999999999999999999", 0},
		{"18446744073709551616", 0},
		{"184467440737.09551616", 8},
		{"1", 18 + 1},
	}
	for _, tt := range tests[:3] {
		_, err := ToAtomic(tt.text, tt.precision)
		assert.ErrorIs(t, err, ErrAmountOverflow, "ToAtomic(%q, %d)", tt.text, tt.precision)
	}
	_, err := ToAtomic(tests[3].text, tests[3].precision)
	assert.ErrorIs(t, err, ErrInvalidAmount, "precision above 18")
}

func TestToAtomic_Invalid(t *testing.T) {
	for _, in := range []string{"1.2.3", "1,2.3", "abc", "-1", "1e5", "+1", "1 000", ".", ",", "0x10"} {
		_, err := ToAtomic(in, 8)
		assert.ErrorIs(t, err, ErrInvalidAmount, "ToAtomic(%q)", in)
	}
}

func TestToAccounting(t *testing.T) {
	assert.Equal(t, "0.00000001", ToAccounting(1, 8).String())
	assert.Equal(t, "1.5", ToAccounting(150_000_000, 8).String())
	assert.Equal(t, "18446744073709551615", ToAccounting(math.MaxUint64, 0).String())
	assert.Equal(t, "18.446744073709551615", ToAccounting(math.MaxUint64, 18).String())
	assert.True(t, ToAccounting(0, 8).IsZero())
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for precision := uint8(0); precision <= model.MaxPrecision; precision++ {
		limit := decimal.New(1, int32(20-int(precision))).BigInt()
		for i := 0; i < 200; i++ {
			atomic := rng.Uint64()
			if limit.IsUint64() && atomic > limit.Uint64() {
				atomic %= limit.Uint64() + 1
			}
			text := ToAccounting(atomic, precision).String()
			got, err := ToAtomic(text, precision)
			require.NoError(t, err, "precision %d text %q", precision, text)
			require.Equal(t, atomic, got, "precision %d text %q", precision, text)
		}
	}
}

func TestDecimalToAtomic(t *testing.T) {
	v, err := DecimalToAtomic(decimal.RequireFromString("0.015"), 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)

	_, err = DecimalToAtomic(decimal.RequireFromString("-0.01"), 2)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestAddAtomic(t *testing.T) {
	sum, err := AddAtomic(1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), sum)

	_, err = AddAtomic(math.MaxUint64, 1)
	assert.ErrorIs(t, err, ErrAmountOverflow)
}

func TestAmount(t *testing.T) {
	a, err := Parse("0.001", btc)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000), a.Atomic)
	assert.Equal(t, "0.001 BTC", a.String())

	b := New(50_000, btc)
	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "0.0015 BTC", sum.String())

	cmp, err := a.Cmp(b)
	require.NoError(t, err)
	assert.Equal(t, 1, cmp)

	other := model.AssetDescriptor{ID: "rgb1usdt", Ticker: "USDT", Precision: 6}
	_, err = a.Add(New(1, other))
	assert.ErrorIs(t, err, ErrAssetMismatch)
	_, err = a.Cmp(New(1, other))
	assert.ErrorIs(t, err, ErrAssetMismatch)

	_, err = New(math.MaxUint64, btc).Add(New(1, btc))
	assert.ErrorIs(t, err, ErrAmountOverflow)

	assert.Equal(t, strconv.Itoa(5), New(5, model.AssetDescriptor{ID: "x"}).String())
	assert.True(t, New(0, btc).IsZero())
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"", "0"},
		{"   ", "0"},
		{"12", "12"},
		{"0,0015", "0.0015"},
		{" 3.25 ", "3.25"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			d, err := ParseDecimal(tt.text)
			require.NoError(t, err)
			assert.True(t, d.Equal(decimal.RequireFromString(tt.want)), "got %s", d)
		})
	}

	for _, bad := range []string{"1.2.3", "1,2.3", "-1", "1e5", ".", "abc"} {
		_, err := ParseDecimal(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}

// Package amount converts between atomic (integer) and accounting (decimal)
// representations of asset quantities.
package amount

import (
	"errors"
	"fmt"
	"math/big"
	"math/bits"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mycitadel/citadel/internal/model"
)

var (
	// ErrInvalidAmount is returned for text outside the numeric alphabet.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrAmountOverflow is returned when a value does not fit into uint64 atomic units.
	ErrAmountOverflow = errors.New("amount overflow")
	// ErrAssetMismatch is returned when combining amounts of different assets.
	ErrAssetMismatch = errors.New("asset mismatch")
)

// ToAccounting returns atomic / 10^precision, exactly.
func ToAccounting(atomic uint64, precision uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(atomic), -int32(precision))
}

// ToAtomic parses a user-entered accounting value and scales it to atomic
// units, truncating toward zero. Either '.' or ',' is accepted as the decimal
// separator. Blank input is zero.
func ToAtomic(text string, precision uint8) (uint64, error) {
	d, err := ParseDecimal(text)
	if err != nil {
		return 0, err
	}
	return DecimalToAtomic(d, precision)
}

// ParseDecimal validates user-entered numeric text against the amount
// alphabet and returns its value. Blank input is zero.
func ParseDecimal(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return decimal.Zero, nil
	}

	digits, separators := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' || r == ',':
			separators++
		default:
			return decimal.Zero, fmt.Errorf("%w: unexpected character %q in %q", ErrInvalidAmount, r, s)
		}
	}
	if separators > 1 {
		return decimal.Zero, fmt.Errorf("%w: more than one decimal separator in %q", ErrInvalidAmount, s)
	}
	if digits == 0 {
		return decimal.Zero, fmt.Errorf("%w: no digits in %q", ErrInvalidAmount, s)
	}

	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return d, nil
}

// DecimalToAtomic scales an accounting decimal to atomic units, truncating
// toward zero.
func DecimalToAtomic(d decimal.Decimal, precision uint8) (uint64, error) {
	if precision > model.MaxPrecision {
		return 0, fmt.Errorf("%w: precision %d exceeds %d", ErrInvalidAmount, precision, model.MaxPrecision)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative value %s", ErrInvalidAmount, d)
	}
	v := d.Shift(int32(precision)).BigInt()
	if !v.IsUint64() {
		return 0, fmt.Errorf("%w: %s with precision %d exceeds 2^64-1 atomic units", ErrAmountOverflow, d, precision)
	}
	return v.Uint64(), nil
}

// AddAtomic returns a+b or ErrAmountOverflow.
func AddAtomic(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: %d + %d", ErrAmountOverflow, a, b)
	}
	return sum, nil
}

// Amount is a quantity of a specific asset.
type Amount struct {
	Atomic uint64
	Asset  model.AssetDescriptor
}

// New returns an Amount of atomic units of asset.
func New(atomic uint64, asset model.AssetDescriptor) Amount {
	return Amount{Atomic: atomic, Asset: asset}
}

// Parse converts accounting text into an Amount of asset.
func Parse(text string, asset model.AssetDescriptor) (Amount, error) {
	v, err := ToAtomic(text, asset.Precision)
	if err != nil {
		return Amount{}, err
	}
	return New(v, asset), nil
}

// Accounting returns the decimal value in accounting units.
func (a Amount) Accounting() decimal.Decimal {
	return ToAccounting(a.Atomic, a.Asset.Precision)
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool {
	return a.Atomic == 0
}

// Add sums two amounts of the same asset.
func (a Amount) Add(b Amount) (Amount, error) {
	if !a.Asset.Same(b.Asset) {
		return Amount{}, fmt.Errorf("%w: %s vs %s", ErrAssetMismatch, a.Asset.ID, b.Asset.ID)
	}
	sum, err := AddAtomic(a.Atomic, b.Atomic)
	if err != nil {
		return Amount{}, fmt.Errorf("adding %s amounts: %w", a.Asset.Ticker, err)
	}
	return New(sum, a.Asset), nil
}

// Cmp compares two amounts of the same asset, returning -1, 0 or +1.
func (a Amount) Cmp(b Amount) (int, error) {
	if !a.Asset.Same(b.Asset) {
		return 0, fmt.Errorf("%w: %s vs %s", ErrAssetMismatch, a.Asset.ID, b.Asset.ID)
	}
	switch {
	case a.Atomic < b.Atomic:
		return -1, nil
	case a.Atomic > b.Atomic:
		return 1, nil
	}
	return 0, nil
}

// String renders the amount as "<accounting> <ticker>".
func (a Amount) String() string {
	if a.Asset.Ticker == "" {
		return a.Accounting().String()
	}
	return a.Accounting().String() + " " + a.Asset.Ticker
}

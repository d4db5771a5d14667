// Package invoice decides how a payment request is represented, renders it
// through the wallet collaborators and parses scanned requests back into an
// Invoice.
package invoice

import (
	"time"

	"github.com/mycitadel/citadel/internal/codec"
	"github.com/mycitadel/citadel/internal/model"
)

// AmountKind says whether and how the requested amount is fixed.
type AmountKind uint8

const (
	AmountArbitrary AmountKind = iota
	AmountFixed
	AmountPerItem
)

// AmountPolicy is the amount part of a Config. Quantity is only meaningful
// for AmountPerItem.
type AmountPolicy struct {
	Kind     AmountKind
	Quantity codec.Quantity
}

// UnitKind names the unit the amount text is entered in.
type UnitKind uint8

const (
	UnitAccounting UnitKind = iota
	UnitAtomic
	UnitFiat
)

// UnitOfAccount is the unit of Config.AmountText. Currency is an ISO-4217
// code and only set for UnitFiat.
type UnitOfAccount struct {
	Kind     UnitKind
	Currency string
}

// Volatility enables exchange rate protection for fiat-priced invoices.
type Volatility struct {
	Enabled      bool
	ToleranceBps uint16
	PriceSource  string
	Currency     string
}

// Config is everything the user chose for a new payment request.
type Config struct {
	AssetID      string
	LegacyFormat bool
	Repeat       codec.Repeat
	Amount       AmountPolicy
	AmountText   string
	Unit         UnitOfAccount

	UseExpiry   bool
	Expiry      time.Time
	UseMerchant bool
	Merchant    string
	UsePurpose  bool
	Purpose     string
	UseDetails  bool
	DetailsURL  string

	Volatility Volatility
}

// Representation is the wire form a payment request is rendered in. Values
// are ordered: a larger value can carry everything a smaller one can.
type Representation uint8

const (
	BareAddress Representation = iota
	URIAddress
	StructuredInvoice
)

func (r Representation) String() string {
	switch r {
	case BareAddress:
		return "address"
	case URIAddress:
		return "uri"
	case StructuredInvoice:
		return "invoice"
	default:
		return "unknown"
	}
}

// Representation selects the smallest representation able to carry c.
func (c Config) Representation(nativeAssetID string) Representation {
	if c.AssetID != nativeAssetID ||
		c.Repeat.Kind != codec.RepeatSingle ||
		c.Amount.Kind == AmountPerItem ||
		c.UseExpiry ||
		c.UseMerchant ||
		c.UsePurpose ||
		c.UseDetails ||
		c.Volatility.Enabled {
		return StructuredInvoice
	}
	if c.Amount.Kind == AmountFixed {
		return URIAddress
	}
	return BareAddress
}

// NextUnitOfAccount returns the unit following current when the user cycles
// units: accounting, atomic (native assets only), fiat, then back. The fiat
// currency is carried over from current.
func NextUnitOfAccount(current UnitOfAccount, asset model.AssetDescriptor) UnitOfAccount {
	next := current
	switch current.Kind {
	case UnitAccounting:
		if asset.IsNative {
			next.Kind = UnitAtomic
		} else {
			next.Kind = UnitFiat
		}
	case UnitAtomic:
		next.Kind = UnitFiat
	default:
		next.Kind = UnitAccounting
	}
	return next
}

// UnitName is the label shown next to the amount.
func UnitName(unit UnitOfAccount, asset model.AssetDescriptor, network string) string {
	switch {
	case unit.Kind == UnitFiat:
		return unit.Currency
	case unit.Kind == UnitAtomic && asset.IsNative:
		if network == "mainnet" {
			return "sats"
		}
		return "tsats"
	}
	return asset.Ticker
}

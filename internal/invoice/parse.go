package invoice

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mycitadel/citadel/internal/amount"
	"github.com/mycitadel/citadel/internal/classify"
	"github.com/mycitadel/citadel/internal/model"
)

// BOLT-11 expiry when the invoice carries no x field.
const defaultBolt11Expiry = 3600 * time.Second

// Invoice is a payment target parsed from scanned or pasted text. Nil
// pointers and empty strings mean the field was absent.
type Invoice struct {
	Source      classify.Kind
	Beneficiary string
	Amount      *amount.Amount
	Asset       *model.AssetDescriptor
	Merchant    string
	Purpose     string
	Expiry      *time.Time
}

// Parser turns recognized payment requests into Invoices.
type Parser struct {
	catalog Catalog
	logger  *zap.Logger
}

// NewParser creates a Parser resolving assets through catalog.
func NewParser(catalog Catalog, opts ...Option) *Parser {
	o := buildOptions(opts)
	return &Parser{catalog: catalog, logger: o.logger}
}

// ParseIncoming classifies text and converts payable kinds into an Invoice.
// Unrecognized text yields *RecognitionError, recognized but unpayable data
// *NotPayableError.
func (p *Parser) ParseIncoming(text string) (Invoice, error) {
	res := classify.Classify(text)
	p.logger.Debug("classified incoming data", zap.String("kind", string(res.Kind())), zap.String("report", res.Report))

	nativeID := p.catalog.NativeAssetID()
	native, hasNative := p.catalog.Lookup(nativeID)

	inv := Invoice{Source: res.Kind()}
	withNative := func(atomic uint64, set bool) {
		if !hasNative {
			return
		}
		inv.Asset = &native
		if set {
			a := amount.New(atomic, native)
			inv.Amount = &a
		}
	}

	switch d := res.Data.(type) {
	case classify.BitcoinAddress:
		inv.Beneficiary = d.Address
		inv.Merchant = d.Label
		inv.Purpose = d.Message
		withNative(d.AmountSats, d.HasAmount)

	case classify.Bolt11Invoice:
		inv.Beneficiary = d.Invoice
		inv.Purpose = d.Description
		withNative(d.AmountMsat/1000, d.HasAmount)
		expiry := defaultBolt11Expiry
		if d.ExpirySecs != 0 {
			expiry = time.Duration(d.ExpirySecs) * time.Second
		}
		t := time.Unix(d.Timestamp, 0).UTC().Add(expiry)
		inv.Expiry = &t

	case classify.StructuredInvoice:
		rec := d.Record
		inv.Beneficiary = rec.Beneficiary
		inv.Merchant = rec.Merchant
		inv.Purpose = rec.Purpose
		if !rec.Expiry.IsZero() {
			t := rec.Expiry
			inv.Expiry = &t
		}
		if rec.AssetID == "" || rec.AssetID == nativeID {
			withNative(rec.Amount, rec.Amount != 0)
			break
		}
		asset, ok := p.catalog.Lookup(rec.AssetID)
		if !ok {
			return Invoice{}, fmt.Errorf("%w: invoice asset %q is not in the catalog", ErrNoAssetSelected, rec.AssetID)
		}
		inv.Asset = &asset
		if rec.Amount != 0 {
			a := amount.New(rec.Amount, asset)
			inv.Amount = &a
		}

	case classify.Unknown:
		return Invoice{}, &RecognitionError{Report: d.Diagnostic}

	default:
		return Invoice{}, &NotPayableError{Kind: res.Kind()}
	}
	return inv, nil
}

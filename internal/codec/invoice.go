package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/btcsuite/btcd/wire"
)

// InvoiceHRP prefixes structured invoices.
const InvoiceHRP = "i"

const (
	invoiceVersion = 1
	maxFieldSize   = 4096
)

// TLV record types. Unknown odd types are skipped on decode, unknown even
// types are rejected.
const (
	tlvBeneficiary = 0
	tlvAssetID     = 2
	tlvAmount      = 4
	tlvMerchant    = 6
	tlvPurpose     = 8
	tlvExpiry      = 10
	tlvRepeat      = 12
	tlvQuantity    = 14
	tlvVolatility  = 16
	tlvDetails     = 18
)

// ErrMalformedInvoice is returned for structurally invalid invoice payloads.
var ErrMalformedInvoice = errors.New("malformed invoice")

// RepeatKind is the wire form of an invoice repeat policy.
type RepeatKind uint8

const (
	RepeatSingle RepeatKind = iota
	RepeatMultiple
	RepeatRecurrent
)

// Interval is the wire form of a recurrence interval.
type Interval uint8

const (
	IntervalSecond Interval = iota
	IntervalMinute
	IntervalHour
	IntervalDay
	IntervalWeek
	IntervalMonth
	IntervalYear
)

// Repeat describes how often an invoice may be paid.
type Repeat struct {
	Kind      RepeatKind
	Interval  Interval
	Frequency uint8
}

// Quantity bounds a per-item invoice. Zero Min/Max mean unbounded.
type Quantity struct {
	Min     uint32
	Max     uint32
	Default uint32
}

// Volatility protects a fiat-denominated price against exchange rate moves.
type Volatility struct {
	ToleranceBps uint16
	PriceSource  string
	Currency     string
}

// InvoiceRecord is the decoded content of a structured invoice string.
type InvoiceRecord struct {
	Beneficiary string
	AssetID     string // empty for the chain's native asset
	Amount      uint64 // atomic units, zero when the payer chooses
	Merchant    string
	Purpose     string
	Expiry      time.Time
	Repeat      Repeat
	Quantity    *Quantity
	Volatility  *Volatility
	DetailsURL  string
}

// EncodeInvoice renders rec as an "i1..." bech32m string.
func EncodeInvoice(rec InvoiceRecord) (string, error) {
	if rec.Beneficiary == "" {
		return "", fmt.Errorf("%w: missing beneficiary", ErrMalformedInvoice)
	}

	var buf bytes.Buffer
	buf.WriteByte(invoiceVersion)

	fields := []struct {
		typ   byte
		value []byte
		set   bool
	}{
		{tlvBeneficiary, []byte(rec.Beneficiary), true},
		{tlvAssetID, []byte(rec.AssetID), rec.AssetID != ""},
		{tlvAmount, binary.BigEndian.AppendUint64(nil, rec.Amount), rec.Amount != 0},
		{tlvMerchant, []byte(rec.Merchant), rec.Merchant != ""},
		{tlvPurpose, []byte(rec.Purpose), rec.Purpose != ""},
		{tlvExpiry, binary.BigEndian.AppendUint64(nil, uint64(rec.Expiry.Unix())), !rec.Expiry.IsZero()},
		{tlvRepeat, []byte{byte(rec.Repeat.Kind), byte(rec.Repeat.Interval), rec.Repeat.Frequency}, rec.Repeat.Kind != RepeatSingle},
		{tlvQuantity, encodeQuantity(rec.Quantity), rec.Quantity != nil},
		{tlvVolatility, encodeVolatility(rec.Volatility), rec.Volatility != nil},
		{tlvDetails, []byte(rec.DetailsURL), rec.DetailsURL != ""},
	}
	for _, f := range fields {
		if !f.set {
			continue
		}
		if len(f.value) > maxFieldSize {
			return "", fmt.Errorf("%w: field %d exceeds %d bytes", ErrMalformedInvoice, f.typ, maxFieldSize)
		}
		buf.WriteByte(f.typ)
		if err := wire.WriteVarBytes(&buf, 0, f.value); err != nil {
			return "", fmt.Errorf("writing field %d: %w", f.typ, err)
		}
	}

	return EncodeBech32m(InvoiceHRP, buf.Bytes())
}

// DecodeInvoice parses an "i1..." string.
func DecodeInvoice(s string) (InvoiceRecord, error) {
	payload, err := decodeWithPrefix(InvoiceHRP, s)
	if err != nil {
		return InvoiceRecord{}, err
	}
	return DecodeInvoicePayload(payload)
}

// DecodeInvoicePayload parses the byte payload of a structured invoice.
func DecodeInvoicePayload(payload []byte) (InvoiceRecord, error) {
	r := bytes.NewReader(payload)
	version, err := r.ReadByte()
	if err != nil {
		return InvoiceRecord{}, fmt.Errorf("%w: empty payload", ErrMalformedInvoice)
	}
	if version != invoiceVersion {
		return InvoiceRecord{}, fmt.Errorf("%w: unsupported version %d", ErrMalformedInvoice, version)
	}

	var rec InvoiceRecord
	last := -1
	for {
		typ, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			break
		}
		value, err := wire.ReadVarBytes(r, 0, maxFieldSize, "tlv value")
		if err != nil {
			return InvoiceRecord{}, fmt.Errorf("%w: field %d: %v", ErrMalformedInvoice, typ, err)
		}
		if int(typ) <= last {
			return InvoiceRecord{}, fmt.Errorf("%w: field %d out of order", ErrMalformedInvoice, typ)
		}
		last = int(typ)

		if err := rec.setField(typ, value); err != nil {
			return InvoiceRecord{}, err
		}
	}

	if rec.Beneficiary == "" {
		return InvoiceRecord{}, fmt.Errorf("%w: missing beneficiary", ErrMalformedInvoice)
	}
	return rec, nil
}

func (rec *InvoiceRecord) setField(typ byte, value []byte) error {
	switch typ {
	case tlvBeneficiary:
		rec.Beneficiary = string(value)
	case tlvAssetID:
		rec.AssetID = string(value)
	case tlvAmount:
		if len(value) != 8 {
			return fmt.Errorf("%w: amount must be 8 bytes", ErrMalformedInvoice)
		}
		rec.Amount = binary.BigEndian.Uint64(value)
	case tlvMerchant:
		rec.Merchant = string(value)
	case tlvPurpose:
		rec.Purpose = string(value)
	case tlvExpiry:
		if len(value) != 8 {
			return fmt.Errorf("%w: expiry must be 8 bytes", ErrMalformedInvoice)
		}
		rec.Expiry = time.Unix(int64(binary.BigEndian.Uint64(value)), 0).UTC()
	case tlvRepeat:
		if len(value) != 3 || value[0] > byte(RepeatRecurrent) || value[1] > byte(IntervalYear) {
			return fmt.Errorf("%w: bad repeat policy", ErrMalformedInvoice)
		}
		rec.Repeat = Repeat{Kind: RepeatKind(value[0]), Interval: Interval(value[1]), Frequency: value[2]}
	case tlvQuantity:
		if len(value) != 12 {
			return fmt.Errorf("%w: quantity must be 12 bytes", ErrMalformedInvoice)
		}
		rec.Quantity = &Quantity{
			Min:     binary.BigEndian.Uint32(value[0:4]),
			Max:     binary.BigEndian.Uint32(value[4:8]),
			Default: binary.BigEndian.Uint32(value[8:12]),
		}
	case tlvVolatility:
		v, err := decodeVolatility(value)
		if err != nil {
			return err
		}
		rec.Volatility = v
	case tlvDetails:
		rec.DetailsURL = string(value)
	default:
		if typ%2 == 0 {
			return fmt.Errorf("%w: unknown required field %d", ErrMalformedInvoice, typ)
		}
	}
	return nil
}

func encodeQuantity(q *Quantity) []byte {
	if q == nil {
		return nil
	}
	b := binary.BigEndian.AppendUint32(nil, q.Min)
	b = binary.BigEndian.AppendUint32(b, q.Max)
	return binary.BigEndian.AppendUint32(b, q.Default)
}

func encodeVolatility(v *Volatility) []byte {
	if v == nil {
		return nil
	}
	var buf bytes.Buffer
	buf.Write(binary.BigEndian.AppendUint16(nil, v.ToleranceBps))
	// Writes into a bytes.Buffer cannot fail.
	_ = wire.WriteVarString(&buf, 0, v.PriceSource)
	_ = wire.WriteVarString(&buf, 0, v.Currency)
	return buf.Bytes()
}

func decodeVolatility(value []byte) (*Volatility, error) {
	if len(value) < 2 {
		return nil, fmt.Errorf("%w: volatility too short", ErrMalformedInvoice)
	}
	r := bytes.NewReader(value[2:])
	source, err := wire.ReadVarString(r, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: volatility price source: %v", ErrMalformedInvoice, err)
	}
	currency, err := wire.ReadVarString(r, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: volatility currency: %v", ErrMalformedInvoice, err)
	}
	return &Volatility{
		ToleranceBps: binary.BigEndian.Uint16(value[:2]),
		PriceSource:  source,
		Currency:     currency,
	}, nil
}

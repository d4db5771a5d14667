package codec

import (
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGenesis() AssetGenesis {
	var contract, schema ID
	for i := range contract {
		contract[i] = byte(i)
		schema[i] = byte(0xff - i)
	}
	return AssetGenesis{
		ContractID:  contract,
		SchemaID:    schema,
		Ticker:      "USDT",
		Name:        "Tether USD",
		Precision:   6,
		KnownSupply: 1_000_000_000_000,
	}
}

func TestInvoice_Minimal(t *testing.T) {
	s, err := EncodeInvoice(InvoiceRecord{Beneficiary: "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s, "i1"), s)

	rec, err := DecodeInvoice(s)
	require.NoError(t, err)
	assert.Equal(t, "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx", rec.Beneficiary)
	assert.Empty(t, rec.AssetID)
	assert.Zero(t, rec.Amount)
	assert.True(t, rec.Expiry.IsZero())
	assert.Equal(t, RepeatSingle, rec.Repeat.Kind)
	assert.Nil(t, rec.Quantity)
	assert.Nil(t, rec.Volatility)
}

func TestInvoice_AllFields(t *testing.T) {
	expiry := time.Date(2026, 11, 1, 12, 0, 0, 0, time.UTC)
	in := InvoiceRecord{
		Beneficiary: "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
		AssetID:     sampleGenesis().AssetID(),
		Amount:      2_500_000,
		Merchant:    "Coffee & Co",
		Purpose:     "2 espressos",
		Expiry:      expiry,
		Repeat:      Repeat{Kind: RepeatRecurrent, Interval: IntervalMonth, Frequency: 1},
		Quantity:    &Quantity{Min: 1, Max: 10, Default: 2},
		Volatility:  &Volatility{ToleranceBps: 150, PriceSource: "kraken", Currency: "EUR"},
		DetailsURL:  "https://example.com/order/42",
	}
	s, err := EncodeInvoice(in)
	require.NoError(t, err)

	got, err := DecodeInvoice(s)
	require.NoError(t, err)
	assert.Equal(t, in, got)

	// Upper-case strings come from QR codes.
	got, err = DecodeInvoice(strings.ToUpper(s))
	require.NoError(t, err)
	assert.Equal(t, in.Beneficiary, got.Beneficiary)
}

func TestInvoice_Errors(t *testing.T) {
	_, err := EncodeInvoice(InvoiceRecord{})
	assert.ErrorIs(t, err, ErrMalformedInvoice)

	_, err = DecodeInvoice(EncodeID(ContractIDHRP, ID{}))
	assert.ErrorIs(t, err, ErrWrongPrefix)

	_, err = DecodeInvoicePayload(nil)
	assert.ErrorIs(t, err, ErrMalformedInvoice)

	_, err = DecodeInvoicePayload([]byte{9})
	assert.ErrorIs(t, err, ErrMalformedInvoice, "unsupported version")

	// Version only, no beneficiary.
	_, err = DecodeInvoicePayload([]byte{invoiceVersion})
	assert.ErrorIs(t, err, ErrMalformedInvoice)

	// Out of order fields.
	_, err = DecodeInvoicePayload([]byte{invoiceVersion, tlvMerchant, 1, 'm', tlvBeneficiary, 1, 'b'})
	assert.ErrorIs(t, err, ErrMalformedInvoice)

	// Unknown even field is required and rejected.
	_, err = DecodeInvoicePayload([]byte{invoiceVersion, tlvBeneficiary, 1, 'b', 40, 1, 'x'})
	assert.ErrorIs(t, err, ErrMalformedInvoice)

	// Bad amount width.
	_, err = DecodeInvoicePayload([]byte{invoiceVersion, tlvBeneficiary, 1, 'b', tlvAmount, 1, 1})
	assert.ErrorIs(t, err, ErrMalformedInvoice)
}

func TestInvoice_UnknownOddFieldSkipped(t *testing.T) {
	rec, err := DecodeInvoicePayload([]byte{invoiceVersion, tlvBeneficiary, 1, 'b', 41, 2, 'x', 'y'})
	require.NoError(t, err)
	assert.Equal(t, "b", rec.Beneficiary)
}

func TestID(t *testing.T) {
	g := sampleGenesis()
	s := EncodeID(ContractIDHRP, g.ContractID)
	assert.True(t, strings.HasPrefix(s, "rgb1"), s)
	assert.Equal(t, s, g.AssetID())

	id, err := DecodeID(ContractIDHRP, s)
	require.NoError(t, err)
	assert.Equal(t, g.ContractID, id)

	_, err = DecodeID(SchemaIDHRP, s)
	assert.ErrorIs(t, err, ErrWrongPrefix)

	_, err = IDFromBytes([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrMalformedContract)
}

func TestGenesis(t *testing.T) {
	g := sampleGenesis()
	s, err := EncodeGenesis(g)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s, "genesis1"), s)

	hrp, payload, err := DecodeBech32(s)
	require.NoError(t, err)
	assert.Equal(t, GenesisHRP, hrp)

	got, err := DecodeGenesisPayload(payload)
	require.NoError(t, err)
	assert.Equal(t, g, got)

	_, err = DecodeGenesisPayload(append(payload, 0))
	assert.ErrorIs(t, err, ErrMalformedContract, "trailing bytes")

	_, err = DecodeGenesisPayload(payload[:20])
	assert.ErrorIs(t, err, ErrMalformedContract, "truncated")

	g.Precision = 19
	_, err = EncodeGenesis(g)
	assert.ErrorIs(t, err, ErrMalformedContract)
}

func TestConsignment(t *testing.T) {
	c := ConsignmentSummary{Asset: sampleGenesis(), Transactions: 3, Transitions: 5, Extensions: 1}
	s, err := EncodeConsignment(c)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s, "consignment1"), s)

	hrp, payload, err := DecodeBech32(s)
	require.NoError(t, err)
	assert.Equal(t, ConsignmentHRP, hrp)

	got, err := DecodeConsignmentPayload(payload)
	require.NoError(t, err)
	assert.Equal(t, c, got)

	_, err = DecodeConsignmentPayload([]byte{consignmentVersion, 1, 2, 3})
	assert.ErrorIs(t, err, ErrMalformedContract)
}

func TestDecodeBech32_Checksum(t *testing.T) {
	_, _, err := DecodeBech32("bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdr")
	require.Error(t, err)
	var checksumErr bech32.ErrInvalidChecksum
	assert.ErrorAs(t, err, &checksumErr)
}

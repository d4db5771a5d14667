package invoicelog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycitadel/citadel/internal/amount"
	"github.com/mycitadel/citadel/internal/codec"
)

const (
	btcID   = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"
	usdtID  = "rgb1usdt"
	segwit  = "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
	segwit2 = "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"
)

var issued = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func uriEntry() Entry {
	return Entry{
		Timestamp:      issued,
		Representation: RepresentationURI,
		AssetID:        btcID,
		AtomicAmount:   150_000,
		Address:        segwit,
		Text:           "bitcoin:" + segwit + "?amount=0.0015",
	}
}

func invoiceEntry(t *testing.T) Entry {
	t.Helper()
	text, err := codec.EncodeInvoice(codec.InvoiceRecord{
		Beneficiary: segwit2,
		AssetID:     usdtID,
		Amount:      10_000_000,
		Merchant:    "Corner Shop",
	})
	require.NoError(t, err)
	return Entry{
		Timestamp:      issued.Add(time.Hour),
		Representation: RepresentationInvoice,
		AssetID:        usdtID,
		AtomicAmount:   10_000_000,
		Address:        segwit2,
		Text:           text,
	}
}

func TestAppendRead(t *testing.T) {
	dir := t.TempDir()
	first := uriEntry()
	require.NoError(t, Append(dir, []Entry{first}))

	second := invoiceEntry(t)
	require.NoError(t, Append(dir, []Entry{second}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, first.Timestamp.Equal(entries[0].Timestamp))
	assert.Equal(t, first.Text, entries[0].Text)
	assert.Equal(t, uint64(150_000), entries[0].AtomicAmount)
	assert.Equal(t, RepresentationInvoice, entries[1].Representation)

	data, err := os.ReadFile(filepath.Join(dir, logFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), Header+"\n"))
	assert.Equal(t, 1, strings.Count(string(data), Header), "header written once")
}

func TestAppend_RejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	bad := uriEntry()
	bad.Representation = "qr"
	err := Append(dir, []Entry{uriEntry(), bad})
	assert.ErrorContains(t, err, "entry 1: unknown representation")

	noText := uriEntry()
	noText.Text = ""
	assert.Error(t, Append(dir, []Entry{noText}))

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing written when a batch is invalid")
}

func TestRead_Missing(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestQuery(t *testing.T) {
	dir := t.TempDir()
	bare := uriEntry()
	bare.Representation = RepresentationAddress
	bare.AtomicAmount = 0
	bare.Text = bare.Address
	bare.Timestamp = issued.Add(2 * time.Hour)
	require.NoError(t, Append(dir, []Entry{uriEntry(), invoiceEntry(t), bare}))

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{RepresentationURI, RepresentationInvoice, RepresentationAddress}},
		{"by asset", Filter{AssetID: btcID}, []string{RepresentationURI, RepresentationAddress}},
		{"by representation", Filter{Representation: RepresentationInvoice}, []string{RepresentationInvoice}},
		{"by address", Filter{Address: segwit2}, []string{RepresentationInvoice}},
		{"since", Filter{Since: issued.Add(90 * time.Minute)}, []string{RepresentationAddress}},
		{"no match", Filter{AssetID: "rgb1none"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := Query(dir, tt.filter)
			require.NoError(t, err)
			var got []string
			for _, e := range entries {
				got = append(got, e.Representation)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEntryRecord(t *testing.T) {
	_, ok, err := uriEntry().Record()
	require.NoError(t, err)
	assert.False(t, ok)

	rec, ok, err := invoiceEntry(t).Record()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Corner Shop", rec.Merchant)
	assert.Equal(t, usdtID, rec.AssetID)

	broken := invoiceEntry(t)
	broken.Text = "i1qqqq"
	_, ok, err = broken.Record()
	assert.True(t, ok)
	assert.Error(t, err)
}

func TestRequestedTotals(t *testing.T) {
	totals, err := RequestedTotals([]Entry{uriEntry(), uriEntry(), invoiceEntry(t)})
	require.NoError(t, err)
	assert.Equal(t, map[string]uint64{btcID: 300_000, usdtID: 10_000_000}, totals)

	huge := uriEntry()
	huge.AtomicAmount = ^uint64(0)
	_, err = RequestedTotals([]Entry{uriEntry(), huge})
	assert.ErrorIs(t, err, amount.ErrAmountOverflow)
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	_, err := UnmarshalEntry([]string{"one"})
	assert.ErrorContains(t, err, "expected 6 fields")

	row := MarshalEntry(uriEntry())
	row[colAtomic] = "lots"
	_, err = UnmarshalEntry(row)
	assert.ErrorContains(t, err, "atomic_amount")

	row = MarshalEntry(uriEntry())
	row[colTimestamp] = "yesterday"
	_, err = UnmarshalEntry(row)
	assert.ErrorContains(t, err, "timestamp")

	row = MarshalEntry(uriEntry())
	row[colRepresentation] = "qr"
	_, err = UnmarshalEntry(row)
	assert.ErrorContains(t, err, "unknown representation")
}

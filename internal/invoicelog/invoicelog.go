// Package invoicelog keeps an append-only record of generated payment
// requests and answers questions about it: what was requested for an asset,
// since when, and which request an address was handed out for.
package invoicelog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mycitadel/citadel/internal/amount"
	"github.com/mycitadel/citadel/internal/codec"
)

// Representations recorded in the log.
const (
	RepresentationAddress = "address"
	RepresentationURI     = "uri"
	RepresentationInvoice = "invoice"
)

// Entry is one issued payment request.
type Entry struct {
	Timestamp      time.Time
	Representation string
	AssetID        string
	AtomicAmount   uint64 // zero when the payer chooses
	Address        string
	Text           string
}

// Record decodes the structured invoice an entry carries. ok is false for
// bare addresses and URIs.
func (e Entry) Record() (rec codec.InvoiceRecord, ok bool, err error) {
	if e.Representation != RepresentationInvoice {
		return codec.InvoiceRecord{}, false, nil
	}
	rec, err = codec.DecodeInvoice(e.Text)
	if err != nil {
		return codec.InvoiceRecord{}, true, fmt.Errorf("decoding logged invoice: %w", err)
	}
	return rec, true, nil
}

func (e Entry) validate() error {
	switch e.Representation {
	case RepresentationAddress, RepresentationURI, RepresentationInvoice:
	default:
		return fmt.Errorf("unknown representation %q", e.Representation)
	}
	if e.Address == "" || e.Text == "" {
		return errors.New("address and text are required")
	}
	return nil
}

// Header is the CSV header for invoice-log.csv.
const Header = "timestamp,representation,asset_id,atomic_amount,address,text"

const (
	numFields         = 6
	logDir            = "logs"
	logFile           = "logs/invoice-log.csv"
	colTimestamp      = 0
	colRepresentation = 1
	colAssetID        = 2
	colAtomic         = 3
	colAddress        = 4
	colText           = 5
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colRepresentation] = e.Representation
	row[colAssetID] = e.AssetID
	row[colAtomic] = strconv.FormatUint(e.AtomicAmount, 10)
	row[colAddress] = e.Address
	row[colText] = e.Text
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	atomic, err := strconv.ParseUint(record[colAtomic], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing atomic_amount %q: %w", record[colAtomic], err)
	}

	e := Entry{
		Timestamp:      ts,
		Representation: record[colRepresentation],
		AssetID:        record[colAssetID],
		AtomicAmount:   atomic,
		Address:        record[colAddress],
		Text:           record[colText],
	}
	if err := e.validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Append validates entries and writes them to <repoRoot>/logs/invoice-log.csv.
// Nothing is written when any entry is invalid.
func Append(repoRoot string, entries []Entry) error {
	for i, e := range entries {
		if err := e.validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}

	if err := os.MkdirAll(filepath.Join(repoRoot, logDir), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(repoRoot, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening invoice log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Filter selects log entries. Zero fields match everything.
type Filter struct {
	AssetID        string
	Representation string
	Address        string
	Since          time.Time
}

// Match reports whether e passes the filter.
func (f Filter) Match(e Entry) bool {
	switch {
	case f.AssetID != "" && e.AssetID != f.AssetID:
		return false
	case f.Representation != "" && e.Representation != f.Representation:
		return false
	case f.Address != "" && e.Address != f.Address:
		return false
	case !f.Since.IsZero() && e.Timestamp.Before(f.Since):
		return false
	}
	return true
}

// Read returns all entries in issue order. A missing log is empty.
func Read(repoRoot string) ([]Entry, error) {
	return Query(repoRoot, Filter{})
}

// Query returns the entries matching f in issue order.
func Query(repoRoot string, f Filter) ([]Entry, error) {
	file, err := os.Open(filepath.Join(repoRoot, logFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening invoice log: %w", err)
	}
	defer file.Close()

	return readEntries(file, f)
}

func readEntries(r io.Reader, f Filter) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	var entries []Entry
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading invoice log CSV: %w", err)
		}
		if row == 1 {
			continue
		}
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		if f.Match(e) {
			entries = append(entries, e)
		}
	}
}

// RequestedTotals sums the fixed amounts requested per asset id. Entries
// that let the payer choose count as zero.
func RequestedTotals(entries []Entry) (map[string]uint64, error) {
	totals := make(map[string]uint64)
	for _, e := range entries {
		sum, err := amount.AddAtomic(totals[e.AssetID], e.AtomicAmount)
		if err != nil {
			return nil, fmt.Errorf("summing requests for %s: %w", e.AssetID, err)
		}
		totals[e.AssetID] = sum
	}
	return totals, nil
}

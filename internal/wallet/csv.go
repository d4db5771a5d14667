package wallet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mycitadel/citadel/internal/model"
)

// AddressHeader is the CSV header for addresses.csv.
const AddressHeader = "address,legacy,used"

// AllocationHeader is the CSV header for allocations.csv.
const AllocationHeader = "outpoint,address,asset_id,atomic_amount"

const (
	numAddressFields = 3
	colAddress       = 0
	colLegacy        = 1
	colUsed          = 2

	numAllocationFields = 4
	colOutPoint         = 0
	colAllocAddress     = 1
	colAssetID          = 2
	colAtomic           = 3
)

// PoolAddress is one pre-derived receiving address.
type PoolAddress struct {
	Address string
	Legacy  bool
	Used    bool
}

// AllocationRow is an allocation as stored, with the asset by id.
type AllocationRow struct {
	OutPoint     model.OutPoint
	Address      string
	AssetID      string
	AtomicAmount uint64
}

func readRecords(r io.Reader, fields int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fields
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	// Skip header row.
	return records[1:], nil
}

// ReadAddresses reads addresses.csv.
func ReadAddresses(r io.Reader) ([]PoolAddress, error) {
	records, err := readRecords(r, numAddressFields)
	if err != nil {
		return nil, fmt.Errorf("reading addresses CSV: %w", err)
	}

	var out []PoolAddress
	for i, rec := range records {
		legacy, err := strconv.ParseBool(rec[colLegacy])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing legacy %q: %w", i+2, rec[colLegacy], err)
		}
		used, err := strconv.ParseBool(rec[colUsed])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing used %q: %w", i+2, rec[colUsed], err)
		}
		out = append(out, PoolAddress{Address: rec[colAddress], Legacy: legacy, Used: used})
	}
	return out, nil
}

// WriteAddresses writes addresses.csv including the header.
func WriteAddresses(w io.Writer, addrs []PoolAddress) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(AddressHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, a := range addrs {
		row := []string{a.Address, strconv.FormatBool(a.Legacy), strconv.FormatBool(a.Used)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadAllocations reads allocations.csv.
func ReadAllocations(r io.Reader) ([]AllocationRow, error) {
	records, err := readRecords(r, numAllocationFields)
	if err != nil {
		return nil, fmt.Errorf("reading allocations CSV: %w", err)
	}

	var out []AllocationRow
	for i, rec := range records {
		row, err := UnmarshalAllocation(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, row)
	}
	return out, nil
}

// AppendAllocations writes rows without a header.
func AppendAllocations(w io.Writer, rows []AllocationRow) error {
	cw := csv.NewWriter(w)
	for _, row := range rows {
		if err := cw.Write(MarshalAllocation(row)); err != nil {
			return fmt.Errorf("writing allocation %s: %w", row.OutPoint, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAllocation converts an AllocationRow to a CSV row.
func MarshalAllocation(row AllocationRow) []string {
	rec := make([]string, numAllocationFields)
	rec[colOutPoint] = row.OutPoint.String()
	rec[colAllocAddress] = row.Address
	rec[colAssetID] = row.AssetID
	rec[colAtomic] = strconv.FormatUint(row.AtomicAmount, 10)
	return rec
}

// UnmarshalAllocation converts a CSV row to an AllocationRow.
func UnmarshalAllocation(rec []string) (AllocationRow, error) {
	if len(rec) != numAllocationFields {
		return AllocationRow{}, fmt.Errorf("expected %d fields, got %d", numAllocationFields, len(rec))
	}
	op, err := model.ParseOutPoint(rec[colOutPoint])
	if err != nil {
		return AllocationRow{}, fmt.Errorf("parsing outpoint: %w", err)
	}
	atomic, err := strconv.ParseUint(rec[colAtomic], 10, 64)
	if err != nil {
		return AllocationRow{}, fmt.Errorf("parsing atomic_amount %q: %w", rec[colAtomic], err)
	}
	return AllocationRow{
		OutPoint:     op,
		Address:      rec[colAllocAddress],
		AssetID:      rec[colAssetID],
		AtomicAmount: atomic,
	}, nil
}

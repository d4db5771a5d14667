package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/mycitadel/citadel/internal/model"
)

const (
	numFields    = 6
	colID        = 0
	colTicker    = 1
	colName      = 2
	colPrecision = 3
	colNative    = 4
	colCategory  = 5
)

// ReadAssets reads assets.csv.
func ReadAssets(r io.Reader) ([]model.AssetDescriptor, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading assets CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var assets []model.AssetDescriptor
	for i, rec := range records[1:] {
		a, err := UnmarshalAsset(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		assets = append(assets, a)
	}
	return assets, nil
}

// WriteAssets writes assets.csv.
func WriteAssets(w io.Writer, assets []model.AssetDescriptor) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"asset_id", "ticker", "name", "precision", "native", "category"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, a := range assets {
		if err := cw.Write(MarshalAsset(a)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAsset converts an AssetDescriptor to a CSV row.
func MarshalAsset(a model.AssetDescriptor) []string {
	row := make([]string, numFields)
	row[colID] = a.ID
	row[colTicker] = a.Ticker
	row[colName] = a.Name
	row[colPrecision] = strconv.Itoa(int(a.Precision))
	row[colNative] = strconv.FormatBool(a.IsNative)
	row[colCategory] = string(a.Category)
	return row
}

// UnmarshalAsset converts a CSV row to an AssetDescriptor.
func UnmarshalAsset(record []string) (model.AssetDescriptor, error) {
	if len(record) != numFields {
		return model.AssetDescriptor{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	if record[colID] == "" {
		return model.AssetDescriptor{}, fmt.Errorf("empty asset_id")
	}

	precision, err := strconv.ParseUint(record[colPrecision], 10, 8)
	if err != nil {
		return model.AssetDescriptor{}, fmt.Errorf("parsing precision %q: %w", record[colPrecision], err)
	}
	if precision > model.MaxPrecision {
		return model.AssetDescriptor{}, fmt.Errorf("precision %d exceeds %d", precision, model.MaxPrecision)
	}

	native, err := strconv.ParseBool(record[colNative])
	if err != nil {
		return model.AssetDescriptor{}, fmt.Errorf("parsing native %q: %w", record[colNative], err)
	}

	category := model.AssetCategory(record[colCategory])
	if !category.Valid() {
		return model.AssetDescriptor{}, fmt.Errorf("unknown category %q", record[colCategory])
	}

	return model.AssetDescriptor{
		ID:        record[colID],
		Ticker:    record[colTicker],
		Name:      record[colName],
		Precision: uint8(precision),
		IsNative:  native,
		Category:  category,
	}, nil
}

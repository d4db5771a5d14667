package invoice

import (
	"errors"

	"github.com/mycitadel/citadel/internal/classify"
)

var (
	// ErrNoAssetSelected is returned when the invoice asset is not in the catalog.
	ErrNoAssetSelected = errors.New("no asset selected")
	// ErrWalletUnavailable wraps failures of the address source.
	ErrWalletUnavailable = errors.New("wallet unavailable")
	// ErrNotPayable matches every *NotPayableError.
	ErrNotPayable = errors.New("not payable")
	// ErrNoRateSource is returned for fiat amounts when no rate source is configured.
	ErrNoRateSource = errors.New("no exchange rate source")
)

// NotPayableError reports recognized data that cannot be paid to.
type NotPayableError struct {
	Kind classify.Kind
}

func (e *NotPayableError) Error() string {
	return "not payable: " + e.Kind.Label()
}

// Is makes errors.Is(err, ErrNotPayable) hold.
func (e *NotPayableError) Is(target error) bool {
	return target == ErrNotPayable
}

// RecognitionError carries the classifier report for unrecognized input.
type RecognitionError struct {
	Report string
}

func (e *RecognitionError) Error() string {
	return "recognition failure: " + e.Report
}

package commands

import (
	"errors"

	"github.com/mycitadel/citadel/internal/amount"
	"github.com/mycitadel/citadel/internal/invoice"
	"github.com/mycitadel/citadel/internal/wallet"
)

// ErrUnrecognized is returned by classify when an input matches no format.
var ErrUnrecognized = errors.New("unrecognized input")

// ErrorKind names the failure class of err for display.
func ErrorKind(err error) string {
	var recog *invoice.RecognitionError
	var notPayable *invoice.NotPayableError
	switch {
	case errors.As(err, &recog), errors.Is(err, ErrUnrecognized):
		return "recognition-failure"
	case errors.As(err, &notPayable), errors.Is(err, invoice.ErrNotPayable):
		return "not-payable"
	case errors.Is(err, amount.ErrAmountOverflow):
		return "amount-overflow"
	case errors.Is(err, amount.ErrInvalidAmount):
		return "invalid-amount"
	case errors.Is(err, invoice.ErrNoAssetSelected):
		return "no-asset-selected"
	case errors.Is(err, invoice.ErrWalletUnavailable), errors.Is(err, wallet.ErrPoolExhausted):
		return "wallet-unavailable"
	default:
		return "error"
	}
}

// FormatError renders err as "<kind>: <detail>".
func FormatError(err error) string {
	return ErrorKind(err) + ": " + err.Error()
}

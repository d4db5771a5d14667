// Package codec implements the bech32m string encodings for structured
// invoices and RGB contract data.
package codec

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// ErrWrongPrefix is returned when a string carries an unexpected hrp.
var ErrWrongPrefix = errors.New("wrong bech32 prefix")

// EncodeBech32m encodes a byte payload under hrp using the bech32m checksum.
// No length limit applies.
func EncodeBech32m(hrp string, payload []byte) (string, error) {
	data, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("converting payload: %w", err)
	}
	s, err := bech32.EncodeM(hrp, data)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", hrp, err)
	}
	return s, nil
}

// DecodeBech32 decodes an arbitrarily long bech32 or bech32m string into its
// lowercase hrp and byte payload.
func DecodeBech32(s string) (string, []byte, error) {
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return "", nil, err
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return hrp, nil, fmt.Errorf("converting payload: %w", err)
	}
	return hrp, payload, nil
}

func decodeWithPrefix(hrp, s string) ([]byte, error) {
	got, payload, err := DecodeBech32(s)
	if err != nil {
		return nil, err
	}
	if got != hrp {
		return nil, fmt.Errorf("%w: want %q, got %q", ErrWrongPrefix, hrp, got)
	}
	return payload, nil
}

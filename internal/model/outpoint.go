package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// OutPoint references a transaction output.
type OutPoint struct {
	TxID chainhash.Hash
	Vout uint32
}

// String returns the "txid:vout" form.
func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID, o.Vout)
}

// ParseOutPoint parses "txid:vout" where txid is 64 hex characters.
func ParseOutPoint(s string) (OutPoint, error) {
	txid, vout, ok := strings.Cut(s, ":")
	if !ok {
		return OutPoint{}, fmt.Errorf("invalid outpoint %q: missing ':' separator", s)
	}
	if len(txid) != chainhash.MaxHashStringSize {
		return OutPoint{}, fmt.Errorf("invalid outpoint %q: txid must be %d hex characters", s, chainhash.MaxHashStringSize)
	}
	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return OutPoint{}, fmt.Errorf("invalid outpoint txid %q: %w", txid, err)
	}
	n, err := strconv.ParseUint(vout, 10, 32)
	if err != nil {
		return OutPoint{}, fmt.Errorf("invalid outpoint vout %q: %w", vout, err)
	}
	return OutPoint{TxID: *hash, Vout: uint32(n)}, nil
}

package classify

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/wire"
)

var psbtMagic = []byte{'p', 's', 'b', 't', 0xff}

// decodeBase64 accepts the standard alphabet with or without padding.
func decodeBase64(s string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return raw, nil
	}
	if strings.HasSuffix(s, "=") {
		return nil, err
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(s); rawErr == nil {
		return raw, nil
	}
	return nil, err
}

func classifyBase64PSBT(s string, _ *attempts) (Data, bool) {
	raw, err := decodeBase64(s)
	if err != nil || !bytes.HasPrefix(raw, psbtMagic) {
		return nil, false
	}
	return decodePSBT(raw), true
}

func decodePSBT(raw []byte) Data {
	p, err := psbt.NewFromRawBytes(bytes.NewReader(raw), false)
	if err != nil {
		return Unknown{Diagnostic: "not a valid psbt: " + err.Error()}
	}
	return PSBT{
		TxID:     p.UnsignedTx.TxHash().String(),
		Inputs:   len(p.Inputs),
		Outputs:  len(p.Outputs),
		Complete: p.IsComplete(),
	}
}

func classifyHex(s string, tried *attempts) (Data, bool) {
	if len(s)%2 != 0 {
		tried.fail("hex", "odd length")
		return nil, false
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		tried.fail("hex", "%v", err)
		return nil, false
	}

	switch {
	case bytes.HasPrefix(raw, psbtMagic):
		return decodePSBT(raw), true
	case len(raw) == 20:
		return Hash160{Hash: raw}, true
	case len(raw) == 32:
		lower := strings.ToLower(s)
		for _, n := range networks {
			if n.params.GenesisHash.String() == lower {
				return GenesisHash{Hash: lower, Network: n.name}, true
			}
		}
		return Hex256{Value: raw}, true
	}
	if tx, ok := decodeTx(raw); ok {
		return tx, true
	}
	return HexUnknown{Payload: raw}, true
}

// decodeTx accepts raw only when it is exactly one transaction with at least
// one input and one output.
func decodeTx(raw []byte) (RawTransaction, bool) {
	var tx wire.MsgTx
	r := bytes.NewReader(raw)
	if err := tx.Deserialize(r); err != nil || r.Len() != 0 {
		return RawTransaction{}, false
	}
	if len(tx.TxIn) == 0 || len(tx.TxOut) == 0 {
		return RawTransaction{}, false
	}
	return RawTransaction{
		TxID:       tx.TxHash().String(),
		Version:    tx.Version,
		Inputs:     len(tx.TxIn),
		Outputs:    len(tx.TxOut),
		LockTime:   tx.LockTime,
		HasWitness: tx.HasWitness(),
	}, true
}

// classifyBase64 is the last, weakest claim: any well-formed base64.
func classifyBase64(s string, tried *attempts) (Data, bool) {
	if len(s)%4 != 0 && corruptBech32(s) {
		tried.fail("base64", "unpadded text is bech32 with a bad checksum")
		return nil, false
	}
	raw, err := decodeBase64(s)
	if err != nil {
		tried.fail("base64", "%v", err)
		return nil, false
	}
	return Base64Unknown{Payload: raw}, true
}

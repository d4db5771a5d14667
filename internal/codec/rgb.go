package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/wire"
	"github.com/klauspost/compress/zstd"

	"github.com/mycitadel/citadel/internal/model"
)

// RGB bech32 prefixes.
const (
	ContractIDHRP  = "rgb"
	SchemaIDHRP    = "sch"
	SchemaHRP      = "schema"
	GenesisHRP     = "genesis"
	ConsignmentHRP = "consignment"
)

const (
	genesisVersion     = 1
	consignmentVersion = 1
	maxConsignmentSize = 1 << 20
	maxStringSize      = 256
)

// ErrMalformedContract is returned for structurally invalid RGB payloads.
var ErrMalformedContract = errors.New("malformed contract data")

var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxConsignmentSize))
)

// ID is a 32-byte contract or schema identifier.
type ID [32]byte

// EncodeID renders id under hrp, e.g. "rgb1..." or "sch1...".
func EncodeID(hrp string, id ID) string {
	// A 32-byte payload always converts and encodes.
	s, _ := EncodeBech32m(hrp, id[:])
	return s
}

// DecodeID parses an identifier carrying the given hrp.
func DecodeID(hrp, s string) (ID, error) {
	payload, err := decodeWithPrefix(hrp, s)
	if err != nil {
		return ID{}, err
	}
	return IDFromBytes(payload)
}

// IDFromBytes copies a 32-byte payload into an ID.
func IDFromBytes(b []byte) (ID, error) {
	var id ID
	if len(b) != len(id) {
		return ID{}, fmt.Errorf("%w: identifier must be %d bytes, got %d", ErrMalformedContract, len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// AssetGenesis is the summary of an RGB20 fungible asset genesis.
type AssetGenesis struct {
	ContractID  ID
	SchemaID    ID
	Ticker      string
	Name        string
	Precision   uint8
	KnownSupply uint64
}

// AssetID returns the "rgb1..." contract identifier.
func (g AssetGenesis) AssetID() string {
	return EncodeID(ContractIDHRP, g.ContractID)
}

// ConsignmentSummary is the decoded overview of a consignment.
type ConsignmentSummary struct {
	Asset        AssetGenesis
	Transactions uint32
	Transitions  uint32
	Extensions   uint32
}

// EncodeGenesis renders g as a "genesis1..." string.
func EncodeGenesis(g AssetGenesis) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte(genesisVersion)
	if err := writeGenesis(&buf, g); err != nil {
		return "", err
	}
	return EncodeBech32m(GenesisHRP, buf.Bytes())
}

// DecodeGenesisPayload parses the byte payload of a genesis string.
func DecodeGenesisPayload(payload []byte) (AssetGenesis, error) {
	if len(payload) == 0 || payload[0] != genesisVersion {
		return AssetGenesis{}, fmt.Errorf("%w: unsupported genesis version", ErrMalformedContract)
	}
	r := bytes.NewReader(payload[1:])
	g, err := readGenesis(r)
	if err != nil {
		return AssetGenesis{}, err
	}
	if r.Len() != 0 {
		return AssetGenesis{}, fmt.Errorf("%w: %d trailing bytes", ErrMalformedContract, r.Len())
	}
	return g, nil
}

// EncodeConsignment renders c as a "consignment1..." string with a
// zstd-compressed body.
func EncodeConsignment(c ConsignmentSummary) (string, error) {
	var body bytes.Buffer
	if err := writeGenesis(&body, c.Asset); err != nil {
		return "", err
	}
	for _, n := range []uint32{c.Transactions, c.Transitions, c.Extensions} {
		if err := wire.WriteVarInt(&body, 0, uint64(n)); err != nil {
			return "", fmt.Errorf("writing counts: %w", err)
		}
	}

	payload := append([]byte{consignmentVersion}, zstdEncoder.EncodeAll(body.Bytes(), nil)...)
	return EncodeBech32m(ConsignmentHRP, payload)
}

// DecodeConsignmentPayload parses the byte payload of a consignment string.
func DecodeConsignmentPayload(payload []byte) (ConsignmentSummary, error) {
	if len(payload) == 0 || payload[0] != consignmentVersion {
		return ConsignmentSummary{}, fmt.Errorf("%w: unsupported consignment version", ErrMalformedContract)
	}
	body, err := zstdDecoder.DecodeAll(payload[1:], nil)
	if err != nil {
		return ConsignmentSummary{}, fmt.Errorf("%w: decompressing: %v", ErrMalformedContract, err)
	}

	r := bytes.NewReader(body)
	g, err := readGenesis(r)
	if err != nil {
		return ConsignmentSummary{}, err
	}
	var counts [3]uint32
	for i := range counts {
		n, err := wire.ReadVarInt(r, 0)
		if err != nil || n > uint64(^uint32(0)) {
			return ConsignmentSummary{}, fmt.Errorf("%w: bad operation counts", ErrMalformedContract)
		}
		counts[i] = uint32(n)
	}
	return ConsignmentSummary{
		Asset:        g,
		Transactions: counts[0],
		Transitions:  counts[1],
		Extensions:   counts[2],
	}, nil
}

func writeGenesis(w io.Writer, g AssetGenesis) error {
	if g.Precision > model.MaxPrecision {
		return fmt.Errorf("%w: precision %d exceeds %d", ErrMalformedContract, g.Precision, model.MaxPrecision)
	}
	if len(g.Ticker) > maxStringSize || len(g.Name) > maxStringSize {
		return fmt.Errorf("%w: ticker and name are limited to %d bytes", ErrMalformedContract, maxStringSize)
	}
	if _, err := w.Write(g.ContractID[:]); err != nil {
		return err
	}
	if _, err := w.Write(g.SchemaID[:]); err != nil {
		return err
	}
	if err := wire.WriteVarString(w, 0, g.Ticker); err != nil {
		return err
	}
	if err := wire.WriteVarString(w, 0, g.Name); err != nil {
		return err
	}
	if _, err := w.Write([]byte{g.Precision}); err != nil {
		return err
	}
	_, err := w.Write(binary.BigEndian.AppendUint64(nil, g.KnownSupply))
	return err
}

func readGenesis(r io.Reader) (AssetGenesis, error) {
	var g AssetGenesis
	if _, err := io.ReadFull(r, g.ContractID[:]); err != nil {
		return AssetGenesis{}, fmt.Errorf("%w: contract id: %v", ErrMalformedContract, err)
	}
	if _, err := io.ReadFull(r, g.SchemaID[:]); err != nil {
		return AssetGenesis{}, fmt.Errorf("%w: schema id: %v", ErrMalformedContract, err)
	}
	var err error
	if g.Ticker, err = readShortString(r); err != nil {
		return AssetGenesis{}, fmt.Errorf("%w: ticker: %v", ErrMalformedContract, err)
	}
	if g.Name, err = readShortString(r); err != nil {
		return AssetGenesis{}, fmt.Errorf("%w: name: %v", ErrMalformedContract, err)
	}
	var tail [9]byte
	if _, err := io.ReadFull(r, tail[:]); err != nil {
		return AssetGenesis{}, fmt.Errorf("%w: precision and supply: %v", ErrMalformedContract, err)
	}
	g.Precision = tail[0]
	if g.Precision > model.MaxPrecision {
		return AssetGenesis{}, fmt.Errorf("%w: precision %d exceeds %d", ErrMalformedContract, g.Precision, model.MaxPrecision)
	}
	g.KnownSupply = binary.BigEndian.Uint64(tail[1:])
	return g, nil
}

func readShortString(r io.Reader) (string, error) {
	b, err := wire.ReadVarBytes(r, 0, maxStringSize, "string")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

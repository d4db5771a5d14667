package classify

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/mycitadel/citadel/internal/codec"
)

type hrpDecoder func(hrp, s string, data []byte) Data

type hrpEntry struct {
	hrp    string
	prefix bool
	// accept, when set, must approve the part of the hrp after a prefix.
	accept func(rest string) bool
	decode hrpDecoder
}

// hrpRegistry is the authoritative prefix table. Exact entries are matched
// before prefix entries; an hrp matching nothing is Bech32Unknown.
var hrpRegistry = []hrpEntry{
	{hrp: "bc", decode: decodeSegwit},
	{hrp: "tb", decode: decodeSegwit},
	{hrp: "bcrt", decode: decodeSegwit},
	{hrp: codec.InvoiceHRP, decode: decodeStructuredInvoice},
	{hrp: codec.ContractIDHRP, decode: decodeContractID},
	{hrp: codec.SchemaIDHRP, decode: decodeSchemaID},
	{hrp: codec.SchemaHRP, decode: decodeSchema},
	{hrp: codec.GenesisHRP, decode: decodeGenesis},
	{hrp: codec.ConsignmentHRP, decode: decodeConsignment},
	{hrp: "ln", prefix: true, accept: hasBolt11Currency, decode: decodeBolt11},
}

func lookupHRP(hrp string) (hrpEntry, bool) {
	for _, e := range hrpRegistry {
		if !e.prefix && e.hrp == hrp {
			return e, true
		}
	}
	for _, e := range hrpRegistry {
		if !e.prefix || !strings.HasPrefix(hrp, e.hrp) {
			continue
		}
		if e.accept == nil || e.accept(hrp[len(e.hrp):]) {
			return e, true
		}
	}
	return hrpEntry{}, false
}

func classifyBech32(s string, tried *attempts) (Data, bool) {
	if strings.LastIndexByte(s, '1') < 0 {
		tried.fail("bech32", "no '1' separator")
		return nil, false
	}
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		tried.fail("bech32", "%s", bech32Reason(err))
		return nil, false
	}

	entry, ok := lookupHRP(hrp)
	if !ok {
		payload, err := bech32.ConvertBits(data, 5, 8, false)
		if err != nil {
			payload = nil
		}
		return Bech32Unknown{HRP: hrp, Payload: payload}, true
	}
	return entry.decode(hrp, s, data), true
}

func bech32Reason(err error) string {
	var checksum bech32.ErrInvalidChecksum
	if errors.As(err, &checksum) {
		return "checksum mismatch"
	}
	var mixed bech32.ErrMixedCase
	if errors.As(err, &mixed) {
		return "mixed case"
	}
	return err.Error()
}

// corruptBech32 reports whether s is well-formed bech32 except for its
// checksum.
func corruptBech32(s string) bool {
	_, _, err := bech32.DecodeNoLimit(s)
	var checksum bech32.ErrInvalidChecksum
	return errors.As(err, &checksum)
}

func decodeSegwit(hrp, s string, _ []byte) Data {
	n, _ := networkBySegwitHRP(hrp)
	addr, err := btcutil.DecodeAddress(s, n.params)
	if err != nil {
		return Unknown{Diagnostic: "not a valid segwit address: " + err.Error()}
	}

	ba := BitcoinAddress{
		Address: addr.EncodeAddress(),
		Network: n.name,
		Payload: addr.ScriptAddress(),
	}
	switch a := addr.(type) {
	case *btcutil.AddressWitnessPubKeyHash:
		ba.Type = AddressP2WPKH
		ba.WitnessVersion = int(a.WitnessVersion())
	case *btcutil.AddressWitnessScriptHash:
		ba.Type = AddressP2WSH
		ba.WitnessVersion = int(a.WitnessVersion())
	case *btcutil.AddressTaproot:
		ba.Type = AddressP2TR
		ba.WitnessVersion = int(a.WitnessVersion())
	default:
		return Unknown{Diagnostic: fmt.Sprintf("unsupported segwit address type %T", addr)}
	}
	return ba
}

func toBytes(data []byte) ([]byte, error) {
	return bech32.ConvertBits(data, 5, 8, false)
}

func decodeStructuredInvoice(_, s string, data []byte) Data {
	payload, err := toBytes(data)
	if err != nil {
		return Unknown{Diagnostic: "not a valid structured invoice: " + err.Error()}
	}
	rec, err := codec.DecodeInvoicePayload(payload)
	if err != nil {
		return Unknown{Diagnostic: "not a valid structured invoice: " + err.Error()}
	}
	return StructuredInvoice{Invoice: strings.ToLower(s), Record: rec}
}

func decodeID(data []byte) (codec.ID, error) {
	payload, err := toBytes(data)
	if err != nil {
		return codec.ID{}, err
	}
	return codec.IDFromBytes(payload)
}

func decodeContractID(_, _ string, data []byte) Data {
	id, err := decodeID(data)
	if err != nil {
		return Unknown{Diagnostic: "not a valid contract id: " + err.Error()}
	}
	return ContractID{ID: id}
}

func decodeSchemaID(_, _ string, data []byte) Data {
	id, err := decodeID(data)
	if err != nil {
		return Unknown{Diagnostic: "not a valid schema id: " + err.Error()}
	}
	return SchemaID{ID: id}
}

func decodeSchema(_, _ string, data []byte) Data {
	payload, err := toBytes(data)
	if err != nil {
		return Unknown{Diagnostic: "not a valid schema: " + err.Error()}
	}
	return Schema{Payload: payload}
}

// decodeGenesis recognizes RGB20 asset geneses and keeps any other genesis
// opaque.
func decodeGenesis(_, _ string, data []byte) Data {
	payload, err := toBytes(data)
	if err != nil {
		return Unknown{Diagnostic: "not a valid genesis: " + err.Error()}
	}
	if g, err := codec.DecodeGenesisPayload(payload); err == nil {
		return RGB20Asset{Asset: g}
	}
	return Genesis{Payload: payload}
}

func decodeConsignment(_, _ string, data []byte) Data {
	payload, err := toBytes(data)
	if err != nil {
		return Unknown{Diagnostic: "not a valid consignment: " + err.Error()}
	}
	c, err := codec.DecodeConsignmentPayload(payload)
	if err != nil {
		return Unknown{Diagnostic: "not a valid consignment: " + err.Error()}
	}
	return Consignment{Summary: c}
}

const (
	bolt11TimestampGroups = 7
	bolt11SignatureGroups = 104

	bolt11TagPaymentHash = 1
	bolt11TagExpiry      = 6
	bolt11TagDescription = 13
)

var bolt11Currencies = []struct {
	prefix  string
	network string
}{
	{"bcrt", "regtest"},
	{"bc", "mainnet"},
	{"tbs", "signet"},
	{"tb", "testnet"},
	{"sb", "simnet"},
}

// msat per unit of the BOLT-11 amount multiplier; pico is handled apart.
var bolt11Multipliers = map[byte]uint64{
	'm': 100_000_000,
	'u': 100_000,
	'n': 100,
}

// bolt11Currency splits the currency prefix off the hrp part after "ln".
func bolt11Currency(rest string) (network, amount string, ok bool) {
	for _, c := range bolt11Currencies {
		if strings.HasPrefix(rest, c.prefix) {
			return c.network, rest[len(c.prefix):], true
		}
	}
	return "", "", false
}

func hasBolt11Currency(rest string) bool {
	_, _, ok := bolt11Currency(rest)
	return ok
}

func decodeBolt11(hrp, s string, data []byte) Data {
	inv := Bolt11Invoice{Invoice: strings.ToLower(s)}

	network, rest, ok := bolt11Currency(strings.TrimPrefix(hrp, "ln"))
	if !ok {
		return Unknown{Diagnostic: fmt.Sprintf("not a valid lightning invoice: unknown currency prefix %q", hrp)}
	}
	inv.Network = network
	if rest != "" {
		msat, err := parseBolt11Amount(rest)
		if err != nil {
			return Unknown{Diagnostic: "not a valid lightning invoice: " + err.Error()}
		}
		inv.HasAmount = true
		inv.AmountMsat = msat
	}

	if len(data) < bolt11TimestampGroups+bolt11SignatureGroups {
		return Unknown{Diagnostic: "not a valid lightning invoice: too short"}
	}
	for _, g := range data[:bolt11TimestampGroups] {
		inv.Timestamp = inv.Timestamp<<5 | int64(g)
	}

	fields := data[bolt11TimestampGroups : len(data)-bolt11SignatureGroups]
	for len(fields) >= 3 {
		tag := fields[0]
		n := int(fields[1])<<5 | int(fields[2])
		fields = fields[3:]
		if n > len(fields) {
			return Unknown{Diagnostic: "not a valid lightning invoice: truncated tagged field"}
		}
		value := fields[:n]
		fields = fields[n:]

		switch tag {
		case bolt11TagPaymentHash:
			if b, err := toBytes(value); err == nil && len(b) == 32 {
				inv.PaymentHash = b
			}
		case bolt11TagDescription:
			if b, err := toBytes(value); err == nil {
				inv.Description = string(b)
			}
		case bolt11TagExpiry:
			for _, g := range value {
				inv.ExpirySecs = inv.ExpirySecs<<5 | uint64(g)
			}
		}
	}
	if len(fields) != 0 {
		return Unknown{Diagnostic: "not a valid lightning invoice: trailing data"}
	}
	return inv
}

func parseBolt11Amount(s string) (uint64, error) {
	digits, mult := s, byte(0)
	if last := s[len(s)-1]; last < '0' || last > '9' {
		digits, mult = s[:len(s)-1], last
	}
	if digits == "" || digits[0] == '0' {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	v, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	var unit uint64
	switch mult {
	case 0:
		unit = 100_000_000_000
	case 'p':
		if v%10 != 0 {
			return 0, fmt.Errorf("pico amount %q is not a whole millisatoshi", s)
		}
		return v / 10, nil
	default:
		u, ok := bolt11Multipliers[mult]
		if !ok {
			return 0, fmt.Errorf("unknown amount multiplier %q", mult)
		}
		unit = u
	}
	hi, lo := bits.Mul64(v, unit)
	if hi != 0 {
		return 0, fmt.Errorf("amount %q overflows", s)
	}
	return lo, nil
}

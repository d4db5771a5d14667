package classify

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	base58Alphabet  = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
	base58MaxLength = 256
	checksumSize    = 4

	addressPayloadSize     = 1 + 20
	extendedKeyPayloadSize = 78
)

type hdPrefix struct {
	name    string
	version uint32
	network string
	script  string
	private bool
}

// SLIP-132 prefixes that chaincfg does not register.
var slip132Prefixes = []hdPrefix{
	{"ypub", 0x049d7cb2, "mainnet", "p2sh-p2wpkh", false},
	{"yprv", 0x049d7878, "mainnet", "p2sh-p2wpkh", true},
	{"zpub", 0x04b24746, "mainnet", "p2wpkh", false},
	{"zprv", 0x04b2430c, "mainnet", "p2wpkh", true},
	{"Ypub", 0x0295b43f, "mainnet", "p2sh-p2wsh", false},
	{"Yprv", 0x0295b005, "mainnet", "p2sh-p2wsh", true},
	{"Zpub", 0x02aa7ed3, "mainnet", "p2wsh", false},
	{"Zprv", 0x02aa7a99, "mainnet", "p2wsh", true},
	{"upub", 0x044a5262, "testnet", "p2sh-p2wpkh", false},
	{"uprv", 0x044a4e28, "testnet", "p2sh-p2wpkh", true},
	{"vpub", 0x045f1cf6, "testnet", "p2wpkh", false},
	{"vprv", 0x045f18bc, "testnet", "p2wpkh", true},
	{"Upub", 0x024289ef, "testnet", "p2sh-p2wsh", false},
	{"Uprv", 0x024285b5, "testnet", "p2sh-p2wsh", true},
	{"Vpub", 0x02575483, "testnet", "p2wsh", false},
	{"Vprv", 0x02575048, "testnet", "p2wsh", true},
}

var hdPrefixes = buildHDPrefixes()

func buildHDPrefixes() []hdPrefix {
	var out []hdPrefix
	seen := make(map[uint32]bool)
	for _, n := range networks {
		pub := binary.BigEndian.Uint32(n.params.HDPublicKeyID[:])
		prv := binary.BigEndian.Uint32(n.params.HDPrivateKeyID[:])
		if !seen[pub] {
			out = append(out, hdPrefix{name: hdName(pub), version: pub, network: n.name, script: "p2pkh"})
			seen[pub] = true
		}
		if !seen[prv] {
			out = append(out, hdPrefix{name: hdName(prv), version: prv, network: n.name, script: "p2pkh", private: true})
			seen[prv] = true
		}
	}
	return append(out, slip132Prefixes...)
}

// hdName renders the four-character prefix a version produces.
func hdName(version uint32) string {
	var raw [extendedKeyPayloadSize + checksumSize]byte
	binary.BigEndian.PutUint32(raw[:], version)
	return base58.Encode(raw[:])[:4]
}

func classifyBase58(s string, tried *attempts) (Data, bool) {
	if len(s) > base58MaxLength {
		tried.fail("base58check", "too long")
		return nil, false
	}
	if i := strings.IndexFunc(s, func(r rune) bool { return !strings.ContainsRune(base58Alphabet, r) }); i >= 0 {
		tried.fail("base58check", "character %q outside alphabet", s[i])
		return nil, false
	}
	raw := base58.Decode(s)
	if len(raw) <= checksumSize {
		tried.fail("base58check", "too short")
		return nil, false
	}
	payload, sum := raw[:len(raw)-checksumSize], raw[len(raw)-checksumSize:]
	if !bytes.Equal(chainhash.DoubleHashB(payload)[:checksumSize], sum) {
		tried.fail("base58check", "checksum mismatch")
		return nil, false
	}

	if len(payload) == addressPayloadSize {
		if d, ok := base58Address(s, payload[0]); ok {
			return d, true
		}
	}
	if d, ok := base58WIF(s, payload[0]); ok {
		return d, true
	}
	if len(payload) == extendedKeyPayloadSize {
		if d, ok := base58ExtendedKey(s, binary.BigEndian.Uint32(payload[:4])); ok {
			return d, true
		}
	}
	return Base58Unknown{Payload: payload}, true
}

func base58Address(s string, version byte) (Data, bool) {
	for _, n := range networks {
		var typ AddressType
		switch version {
		case n.params.PubKeyHashAddrID:
			typ = AddressP2PKH
		case n.params.ScriptHashAddrID:
			typ = AddressP2SH
		default:
			continue
		}
		addr, err := btcutil.DecodeAddress(s, n.params)
		if err != nil {
			return Unknown{Diagnostic: "not a valid legacy address: " + err.Error()}, true
		}
		return BitcoinAddress{
			Address:        addr.EncodeAddress(),
			Network:        n.name,
			Type:           typ,
			WitnessVersion: -1,
			Payload:        addr.ScriptAddress(),
		}, true
	}
	return nil, false
}

func base58WIF(s string, version byte) (Data, bool) {
	for _, n := range networks {
		if version != n.params.PrivateKeyID {
			continue
		}
		wif, err := btcutil.DecodeWIF(s)
		if err != nil {
			return nil, false
		}
		return WIFPrivateKey{Network: n.name, Compressed: wif.CompressPubKey}, true
	}
	return nil, false
}

func base58ExtendedKey(s string, version uint32) (Data, bool) {
	for _, p := range hdPrefixes {
		if p.version != version {
			continue
		}
		key, err := hdkeychain.NewKeyFromString(s)
		if err != nil {
			return Unknown{Diagnostic: "not a valid extended key: " + err.Error()}, true
		}
		if key.IsPrivate() != p.private {
			return Unknown{Diagnostic: "not a valid extended key: key material does not match prefix " + p.name}, true
		}
		ek := ExtendedKey{
			Prefix:            p.name,
			Network:           p.network,
			Script:            p.script,
			Depth:             key.Depth(),
			ChildIndex:        key.ChildIndex(),
			ParentFingerprint: key.ParentFingerprint(),
		}
		if p.private {
			return ExtendedPrivateKey{ek}, true
		}
		return ExtendedPublicKey{ek}, true
	}
	return nil, false
}

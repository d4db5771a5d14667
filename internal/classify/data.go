package classify

import (
	"github.com/mycitadel/citadel/internal/codec"
)

// Kind names a recognized data kind.
type Kind string

const (
	KindUnknown            Kind = "unknown"
	KindURL                Kind = "url"
	KindBitcoinAddress     Kind = "bitcoin-address"
	KindBolt11Invoice      Kind = "bolt11-invoice"
	KindStructuredInvoice  Kind = "structured-invoice"
	KindSchemaID           Kind = "schema-id"
	KindContractID         Kind = "contract-id"
	KindSchema             Kind = "schema"
	KindGenesis            Kind = "genesis"
	KindConsignment        Kind = "consignment"
	KindRGB20Asset         Kind = "rgb20-asset"
	KindWIFPrivateKey      Kind = "wif-private-key"
	KindExtendedPublicKey  Kind = "extended-public-key"
	KindExtendedPrivateKey Kind = "extended-private-key"
	KindDerivationPath     Kind = "derivation-path"
	KindDescriptor         Kind = "descriptor"
	KindMiniscript         Kind = "miniscript"
	KindScript             Kind = "script"
	KindOutPoint           Kind = "outpoint"
	KindHash160            Kind = "hash160"
	KindGenesisHash        Kind = "genesis-hash"
	KindHex256             Kind = "hex256"
	KindRawTransaction     Kind = "raw-transaction"
	KindPSBT               Kind = "psbt"
	KindBech32Unknown      Kind = "bech32-unknown"
	KindBase64Unknown      Kind = "base64-unknown"
	KindBase58Unknown      Kind = "base58-unknown"
	KindHexUnknown         Kind = "hex-unknown"
)

var kindLabels = map[Kind]string{
	KindUnknown:            "incorrect data",
	KindURL:                "URL",
	KindBitcoinAddress:     "Bitcoin address",
	KindBolt11Invoice:      "Lightning invoice",
	KindStructuredInvoice:  "Structured invoice",
	KindSchemaID:           "RGB schema id",
	KindContractID:         "RGB contract id",
	KindSchema:             "RGB schema",
	KindGenesis:            "RGB contract genesis",
	KindConsignment:        "RGB consignment",
	KindRGB20Asset:         "RGB20 asset",
	KindWIFPrivateKey:      "WIF private key",
	KindExtendedPublicKey:  "Extended public key",
	KindExtendedPrivateKey: "Extended private key",
	KindDerivationPath:     "Derivation path",
	KindDescriptor:         "Output descriptor",
	KindMiniscript:         "Miniscript",
	KindScript:             "Bitcoin script",
	KindOutPoint:           "Transaction outpoint",
	KindHash160:            "160-bit hash",
	KindGenesisHash:        "Chain genesis hash",
	KindHex256:             "256-bit hex value",
	KindRawTransaction:     "Raw transaction",
	KindPSBT:               "Partially signed transaction",
	KindBech32Unknown:      "Unknown bech32 data",
	KindBase64Unknown:      "Unknown base64 data",
	KindBase58Unknown:      "Unknown base58 data",
	KindHexUnknown:         "Unknown hex data",
}

// Label returns a human-readable name for the kind.
func (k Kind) Label() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return string(k)
}

// Data is the closed set of classification outcomes.
type Data interface {
	Kind() Kind
	isData()
}

// AddressType is the output type a Bitcoin address pays to.
type AddressType string

const (
	AddressP2PKH  AddressType = "p2pkh"
	AddressP2SH   AddressType = "p2sh"
	AddressP2WPKH AddressType = "p2wpkh"
	AddressP2WSH  AddressType = "p2wsh"
	AddressP2TR   AddressType = "p2tr"
)

// Unknown means no decoding accepted the input.
type Unknown struct {
	Diagnostic string
}

// URL is a web link.
type URL struct {
	URL  string
	Host string
}

// BitcoinAddress is an on-chain address, possibly wrapped in a BIP-21 URI.
type BitcoinAddress struct {
	Address        string
	Network        string
	Type           AddressType
	WitnessVersion int // -1 for legacy addresses
	Payload        []byte

	BIP21      bool
	HasAmount  bool
	AmountSats uint64
	Label      string
	Message    string
	Lightning  string
}

// Bolt11Invoice is a lightning payment request.
type Bolt11Invoice struct {
	Invoice     string
	Network     string
	HasAmount   bool
	AmountMsat  uint64
	Timestamp   int64
	Description string
	ExpirySecs  uint64
	PaymentHash []byte
}

// StructuredInvoice is a decoded "i1..." invoice.
type StructuredInvoice struct {
	Invoice string
	Record  codec.InvoiceRecord
}

// SchemaID is an "sch1..." identifier.
type SchemaID struct {
	ID codec.ID
}

// ContractID is an "rgb1..." identifier.
type ContractID struct {
	ID codec.ID
}

// Schema is an opaque "schema1..." payload.
type Schema struct {
	Payload []byte
}

// Genesis is a "genesis1..." payload that is not an RGB20 asset.
type Genesis struct {
	Payload []byte
}

// Consignment is a "consignment1..." string.
type Consignment struct {
	Summary codec.ConsignmentSummary
}

// RGB20Asset is a fungible asset genesis.
type RGB20Asset struct {
	Asset codec.AssetGenesis
}

// WIFPrivateKey is a base58check private key.
type WIFPrivateKey struct {
	Network    string
	Compressed bool
}

// ExtendedKey is the shared summary of extended public and private keys.
type ExtendedKey struct {
	Prefix            string
	Network           string
	Script            string
	Depth             uint8
	ChildIndex        uint32
	ParentFingerprint uint32
}

// ExtendedPublicKey is an xpub-like key.
type ExtendedPublicKey struct {
	ExtendedKey
}

// ExtendedPrivateKey is an xprv-like key.
type ExtendedPrivateKey struct {
	ExtendedKey
}

// DerivationPath is a BIP-32 path. Hardened components carry the 0x80000000 bit.
type DerivationPath struct {
	Path       string
	Components []uint32
}

// Descriptor is an output script descriptor.
type Descriptor struct {
	Descriptor string
	Checksum   string
	Top        string
}

// Miniscript is a policy expression without an output wrapper.
type Miniscript struct {
	Expression string
	Top        string
}

// Script is a textual Bitcoin script.
type Script struct {
	Asm   string
	Bytes []byte
	Class string
}

// OutPoint is a "txid:vout" reference.
type OutPoint struct {
	TxID string
	Vout uint32
}

// Hash160 is a 20-byte hex value.
type Hash160 struct {
	Hash []byte
}

// GenesisHash is the genesis block hash of a known network.
type GenesisHash struct {
	Hash    string
	Network string
}

// Hex256 is a 32-byte hex value: a key, hash or identifier.
type Hex256 struct {
	Value []byte
}

// RawTransaction is a serialized Bitcoin transaction.
type RawTransaction struct {
	TxID       string
	Version    int32
	Inputs     int
	Outputs    int
	LockTime   uint32
	HasWitness bool
}

// PSBT is a partially signed Bitcoin transaction.
type PSBT struct {
	TxID     string
	Inputs   int
	Outputs  int
	Complete bool
}

// Bech32Unknown is valid bech32 under an unregistered prefix.
type Bech32Unknown struct {
	HRP     string
	Payload []byte
}

// Base64Unknown is valid base64 without a recognized structure.
type Base64Unknown struct {
	Payload []byte
}

// Base58Unknown is valid base58check with an unknown version.
type Base58Unknown struct {
	Payload []byte
}

// HexUnknown is valid hex of no recognized length or structure.
type HexUnknown struct {
	Payload []byte
}

func (Unknown) Kind() Kind            { return KindUnknown }
func (URL) Kind() Kind                { return KindURL }
func (BitcoinAddress) Kind() Kind     { return KindBitcoinAddress }
func (Bolt11Invoice) Kind() Kind      { return KindBolt11Invoice }
func (StructuredInvoice) Kind() Kind  { return KindStructuredInvoice }
func (SchemaID) Kind() Kind           { return KindSchemaID }
func (ContractID) Kind() Kind         { return KindContractID }
func (Schema) Kind() Kind             { return KindSchema }
func (Genesis) Kind() Kind            { return KindGenesis }
func (Consignment) Kind() Kind        { return KindConsignment }
func (RGB20Asset) Kind() Kind         { return KindRGB20Asset }
func (WIFPrivateKey) Kind() Kind      { return KindWIFPrivateKey }
func (ExtendedPublicKey) Kind() Kind  { return KindExtendedPublicKey }
func (ExtendedPrivateKey) Kind() Kind { return KindExtendedPrivateKey }
func (DerivationPath) Kind() Kind     { return KindDerivationPath }
func (Descriptor) Kind() Kind         { return KindDescriptor }
func (Miniscript) Kind() Kind         { return KindMiniscript }
func (Script) Kind() Kind             { return KindScript }
func (OutPoint) Kind() Kind           { return KindOutPoint }
func (Hash160) Kind() Kind            { return KindHash160 }
func (GenesisHash) Kind() Kind        { return KindGenesisHash }
func (Hex256) Kind() Kind             { return KindHex256 }
func (RawTransaction) Kind() Kind     { return KindRawTransaction }
func (PSBT) Kind() Kind               { return KindPSBT }
func (Bech32Unknown) Kind() Kind      { return KindBech32Unknown }
func (Base64Unknown) Kind() Kind      { return KindBase64Unknown }
func (Base58Unknown) Kind() Kind      { return KindBase58Unknown }
func (HexUnknown) Kind() Kind         { return KindHexUnknown }

func (Unknown) isData()            {}
func (URL) isData()                {}
func (BitcoinAddress) isData()     {}
func (Bolt11Invoice) isData()      {}
func (StructuredInvoice) isData()  {}
func (SchemaID) isData()           {}
func (ContractID) isData()         {}
func (Schema) isData()             {}
func (Genesis) isData()            {}
func (Consignment) isData()        {}
func (RGB20Asset) isData()         {}
func (WIFPrivateKey) isData()      {}
func (ExtendedPublicKey) isData()  {}
func (ExtendedPrivateKey) isData() {}
func (DerivationPath) isData()     {}
func (Descriptor) isData()         {}
func (Miniscript) isData()         {}
func (Script) isData()             {}
func (OutPoint) isData()           {}
func (Hash160) isData()            {}
func (GenesisHash) isData()        {}
func (Hex256) isData()             {}
func (RawTransaction) isData()     {}
func (PSBT) isData()               {}
func (Bech32Unknown) isData()      {}
func (Base64Unknown) isData()      {}
func (Base58Unknown) isData()      {}
func (HexUnknown) isData()         {}

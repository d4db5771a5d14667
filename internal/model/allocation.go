package model

// Allocation is one spendable quantity of an asset bound to a UTXO, as
// reported by the wallet. Address is empty when unknown (e.g. unconfirmed
// internal state).
type Allocation struct {
	OutPoint     OutPoint
	Address      string
	Asset        AssetDescriptor
	AtomicAmount uint64
}

// HasAddress reports whether the allocation is bound to a known address.
func (a Allocation) HasAddress() bool {
	return a.Address != ""
}

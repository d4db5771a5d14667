package catalog

import (
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/mycitadel/citadel/internal/model"
)

// BitcoinPrecision is the number of satoshi decimal places in one bitcoin.
const BitcoinPrecision = 8

// NativeAsset returns the descriptor of the chain's native coin. Its id is
// the chain genesis hash.
func NativeAsset(params *chaincfg.Params) model.AssetDescriptor {
	a := model.AssetDescriptor{
		ID:        params.GenesisHash.String(),
		Ticker:    "BTC",
		Name:      "Bitcoin",
		Precision: BitcoinPrecision,
		IsNative:  true,
		Category:  model.AssetCategoryCurrency,
	}
	if params.Net != chaincfg.MainNetParams.Net {
		a.Ticker = "tBTC"
		a.Name = "Test bitcoin"
	}
	return a
}

// DefaultCatalog returns the catalog a new wallet starts with.
func DefaultCatalog(params *chaincfg.Params) []model.AssetDescriptor {
	return []model.AssetDescriptor{NativeAsset(params)}
}

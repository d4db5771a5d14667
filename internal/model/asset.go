package model

// MaxPrecision is the largest number of decimal places an asset may declare.
const MaxPrecision = 18

// AssetCategory classifies an asset for display.
type AssetCategory string

const (
	AssetCategoryCurrency   AssetCategory = "currency"
	AssetCategoryStablecoin AssetCategory = "stablecoin"
	AssetCategoryToken      AssetCategory = "token"
	AssetCategoryNFT        AssetCategory = "nft"
)

// Valid reports whether c is one of the known categories.
func (c AssetCategory) Valid() bool {
	switch c {
	case AssetCategoryCurrency, AssetCategoryStablecoin, AssetCategoryToken, AssetCategoryNFT:
		return true
	}
	return false
}

// AssetDescriptor mirrors the genesis data of an asset. Identity is ID.
type AssetDescriptor struct {
	ID        string
	Ticker    string
	Name      string
	Precision uint8
	IsNative  bool
	Category  AssetCategory
}

// Same reports whether two descriptors identify the same asset.
func (a AssetDescriptor) Same(other AssetDescriptor) bool {
	return a.ID == other.ID
}

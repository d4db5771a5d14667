package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("testnet")
	cfg.Wallet.LegacyFormat = true
	cfg.Invoice.Rates = map[string]string{"BTC/USD": "60000"}

	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default("mainnet")

	assert.Equal(t, "mainnet", cfg.Network)
	assert.False(t, cfg.Wallet.LegacyFormat)
	assert.Equal(t, "accounting", cfg.Invoice.Unit)
	assert.Equal(t, "USD", cfg.Invoice.Currency)
	assert.Equal(t, uint16(100), cfg.Invoice.ToleranceBps)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Empty(t, cfg.Invoice.Rates)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadUnknownNetwork(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("network: moonnet\n"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown network")
}

func TestChainParams(t *testing.T) {
	tests := map[string]*chaincfg.Params{
		"":        &chaincfg.MainNetParams,
		"mainnet": &chaincfg.MainNetParams,
		"testnet": &chaincfg.TestNet3Params,
		"signet":  &chaincfg.SigNetParams,
		"regtest": &chaincfg.RegressionNetParams,
	}
	for name, want := range tests {
		cfg := Config{Network: name}
		got, err := cfg.ChainParams()
		require.NoError(t, err)
		assert.Same(t, want, got, name)
	}
}

func TestYAMLFormat(t *testing.T) {
	cfg := Default("signet")
	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "network: signet")
	assert.Contains(t, contents, "legacy_format: false")
	assert.Contains(t, contents, "price_source: bitfinex")
	assert.Contains(t, contents, "tolerance_bps: 100")
	assert.NotContains(t, contents, "rates:")
}

package config

import (
	"fmt"
	"os"

	"github.com/btcsuite/btcd/chaincfg"
	"gopkg.in/yaml.v3"
)

// FileName is the config file at the root of a wallet repo.
const FileName = "citadel.yaml"

// Config represents the top-level citadel.yaml configuration.
type Config struct {
	Network string        `yaml:"network"`
	Wallet  WalletConfig  `yaml:"wallet"`
	Invoice InvoiceConfig `yaml:"invoice"`
	Logging LoggingConfig `yaml:"logging"`
}

// WalletConfig controls address generation.
type WalletConfig struct {
	LegacyFormat bool `yaml:"legacy_format"`
}

// InvoiceConfig holds defaults for new payment requests.
type InvoiceConfig struct {
	Unit         string            `yaml:"unit"` // accounting, atomic or fiat
	Currency     string            `yaml:"currency"`
	PriceSource  string            `yaml:"price_source"`
	ToleranceBps uint16            `yaml:"tolerance_bps"`
	Rates        map[string]string `yaml:"rates,omitempty"` // "BTC/USD": "60000"
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// Load reads a citadel.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if _, err := cfg.ChainParams(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new wallet.
func Default(network string) *Config {
	return &Config{
		Network: network,
		Invoice: InvoiceConfig{
			Unit:         "accounting",
			Currency:     "USD",
			PriceSource:  "bitfinex",
			ToleranceBps: 100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// ChainParams returns the btcd parameters of the configured network.
func (c *Config) ChainParams() (*chaincfg.Params, error) {
	switch c.Network {
	case "mainnet", "":
		return &chaincfg.MainNetParams, nil
	case "testnet":
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("unknown network %q", c.Network)
	}
}

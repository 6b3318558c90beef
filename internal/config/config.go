// Package config provides configuration management for trenchsniperd: a
// YAML file of non-secret operational defaults overlaid by environment
// variables (§4.9, §6).
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the full process configuration.
type Config struct {
	Version int           `yaml:"version"`
	Home    string        `yaml:"home"`
	Chain   ChainConfig   `yaml:"chain"`
	Vault   VaultConfig   `yaml:"vault"`
	Trading TradingConfig `yaml:"trading"`
	Fees    FeesConfig    `yaml:"fees"`
	Hosted  HostedConfig  `yaml:"hosted"`
	Logging LoggingConfig `yaml:"logging"`
	Output  OutputConfig  `yaml:"output"`

	// Warnings accumulates non-fatal problems found while applying
	// environment overrides (e.g. an insecure RPC URL); surfaces render
	// these once at startup instead of failing.
	Warnings []string `yaml:"-"`
}

// ChainConfig describes the Solana RPC endpoint and per-provider credentials
// used by Venue Clients (§6).
type ChainConfig struct {
	RPCURL          string `yaml:"rpc_url"`
	SelfHosted      bool   `yaml:"self_hosted"`
	JupiterAPIKey   string `yaml:"-"`
	HeliusAPIKey    string `yaml:"-"`
	ChangeNowAPIKey string `yaml:"-"`
}

// VaultConfig describes vault location and password sourcing (§4.1, §6).
type VaultConfig struct {
	Path            string `yaml:"path"`
	Password        string `yaml:"-"` // never serialized; sourced from env/sidecar only
	TreasuryAddress string `yaml:"treasury_address"`
}

// TradingConfig describes default safety caps applied outside any
// session-specific preset (§6 `*_SLIPPAGE_BPS`, `*_MAX_BUY_SOL`).
type TradingConfig struct {
	SlippageBps int     `yaml:"slippage_bps"`
	MaxBuySOL   float64 `yaml:"max_buy_sol"`
}

// FeesConfig describes platform fee collection parameters (§4.4); these
// may be overwritten at startup by the hosted bootstrap response (§6).
type FeesConfig struct {
	Account string `yaml:"account"`
	Bps     int    `yaml:"bps"`
}

// HostedConfig describes the optional hosted bootstrap endpoint (§6).
type HostedConfig struct {
	APIURL string `yaml:"api_url"`
	APIKey string `yaml:"-"`
}

// LoggingConfig describes structured-logging sink settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// OutputConfig describes CLI output formatting preferences.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// Load reads configuration from the given YAML file, overlaying onto
// Defaults() so a partial file only overrides what it sets. A missing
// file is not an error — Defaults() is returned as-is.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	//nolint:gosec // G304: config file path is operator-supplied, validated at the CLI boundary
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to path, creating the parent directory if
// needed.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Path returns the default config file path under home.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// GetHome expands and returns the configured home directory.
func (c *Config) GetHome() string {
	home := c.Home
	if home == "" {
		home = "~/.trenchsniper"
	}
	if strings.HasPrefix(home, "~/") {
		if u, err := os.UserHomeDir(); err == nil {
			home = filepath.Join(u, home[2:])
		}
	}
	return home
}

// DefaultHome returns the default trenchsniperd home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".trenchsniper"
	}
	return filepath.Join(home, ".trenchsniper")
}

package config

// DefaultRPCURL is the default Solana RPC endpoint used when no
// self-hosted or API-key-backed provider is configured.
const DefaultRPCURL = "https://api.mainnet-beta.solana.com"

// DefaultSlippageBps is the default slippage tolerance applied to swaps.
// Session presets carry no slippage of their own; every session swap uses
// the configured trading slippage, which defaults to this value.
const DefaultSlippageBps = 500 // 5%

// DefaultMaxBuySOL is the default per-trade SOL cap applied outside any
// session-specific preset.
const DefaultMaxBuySOL = 1.0

// DefaultFeeBps is the default platform fee taken by the Fee Collector
// (§4.4) before any hosted bootstrap override.
const DefaultFeeBps = 100 // 1%

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.trenchsniper",
		Chain: ChainConfig{
			RPCURL:     DefaultRPCURL,
			SelfHosted: false,
		},
		Vault: VaultConfig{
			Path: "~/.trenchsniper/vault.json",
		},
		Trading: TradingConfig{
			SlippageBps: DefaultSlippageBps,
			MaxBuySOL:   DefaultMaxBuySOL,
		},
		Fees: FeesConfig{
			Account: "",
			Bps:     DefaultFeeBps,
		},
		Hosted: HostedConfig{
			APIURL: "",
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.trenchsniper/trenchsniperd.log",
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
	}
}

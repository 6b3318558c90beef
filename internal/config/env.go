package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/mrz1836/go-sanitize"
)

// ErrInsecureRPCURL indicates an RPC URL is using plaintext HTTP.
var ErrInsecureRPCURL = errors.New("RPC URL must use HTTPS or WSS")

// Environment variable names (§6).
const (
	EnvHome            = "TRENCHSNIPER_HOME"
	EnvRPCURL          = "TRENCHSNIPER_RPC_URL"
	EnvVaultPassword   = "TRENCHSNIPER_VAULT_PASSWORD" //nolint:gosec // G101 -- const name, not a credential
	EnvVaultPath       = "TRENCHSNIPER_VAULT_PATH"
	EnvTreasuryAddress = "TRENCHSNIPER_TREASURY_ADDRESS"
	EnvSlippageBps     = "TRENCHSNIPER_SLIPPAGE_BPS"
	EnvMaxBuySOL       = "TRENCHSNIPER_MAX_BUY_SOL"
	EnvSelfHosted      = "TRENCHSNIPER_SELF_HOSTED"
	EnvAPIURL          = "TRENCHSNIPER_API_URL"
	EnvAPIKey          = "TRENCHSNIPER_API_KEY" //nolint:gosec // G101 -- const name, not a credential
	EnvJupiterAPIKey   = "TRENCHSNIPER_JUPITER_API_KEY"
	EnvHeliusAPIKey    = "TRENCHSNIPER_HELIUS_API_KEY"
	EnvChangeNowAPIKey = "TRENCHSNIPER_CHANGENOW_API_KEY"
	EnvOutputFormat    = "TRENCHSNIPER_OUTPUT_FORMAT"
	EnvVerbose         = "TRENCHSNIPER_VERBOSE"
	EnvLogLevel        = "TRENCHSNIPER_LOG_LEVEL"
	EnvNoColor         = "NO_COLOR"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
//
//nolint:gocognit,gocyclo // Environment variable overrides require sequential checks
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvRPCURL); v != "" {
		sanitized := SanitizeURL(v)
		if err := ValidateRPCURL(sanitized); err != nil {
			// Record a warning but still set the URL — cfg.Warnings is
			// printed to stderr at startup.
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("%s: %v", EnvRPCURL, err))
		}
		cfg.Chain.RPCURL = sanitized
	}

	if v := os.Getenv(EnvVaultPassword); v != "" {
		cfg.Vault.Password = v
	}

	if v := os.Getenv(EnvVaultPath); v != "" {
		cfg.Vault.Path = v
	}

	if v := os.Getenv(EnvTreasuryAddress); v != "" {
		cfg.Vault.TreasuryAddress = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvSlippageBps); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Trading.SlippageBps = n
		}
	}

	if v := os.Getenv(EnvMaxBuySOL); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Trading.MaxBuySOL = f
		}
	}

	if v := os.Getenv(EnvSelfHosted); v != "" {
		cfg.Chain.SelfHosted = parseBool(v)
	}

	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.Hosted.APIURL = SanitizeURL(v)
	}

	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.Hosted.APIKey = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvJupiterAPIKey); v != "" {
		cfg.Chain.JupiterAPIKey = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvHeliusAPIKey); v != "" {
		cfg.Chain.HeliusAPIKey = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvChangeNowAPIKey); v != "" {
		cfg.Chain.ChangeNowAPIKey = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizeURL cleans a URL string by removing invalid characters and trimming whitespace.
// This is useful for cleaning operator-provided RPC URLs that may contain copy-paste artifacts.
func SanitizeURL(rawURL string) string {
	return sanitize.URL(strings.TrimSpace(rawURL))
}

// ValidateRPCURL validates that an RPC URL uses HTTPS/WSS (or localhost for
// development). Returns an error if the URL scheme is plaintext and the
// host is not loopback — a plaintext RPC endpoint would expose signed
// transactions and API keys to network attackers.
func ValidateRPCURL(rawURL string) error {
	if rawURL == "" {
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid RPC URL: %w", err)
	}

	if u.Scheme == "https" || u.Scheme == "wss" {
		return nil
	}

	host := u.Hostname()
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return nil
	}

	return fmt.Errorf("%w (got %s://%s)", ErrInsecureRPCURL, u.Scheme, u.Host)
}

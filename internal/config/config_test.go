package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trenchsniper/trenchsniperd/internal/config"
)

func TestLoadSaveRoundTrip(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := config.Defaults()
	cfg.Chain.RPCURL = "https://mainnet.helius-rpc.com/?api-key=test"
	cfg.Trading.SlippageBps = 250
	cfg.Output.Verbose = true

	err := config.Save(cfg, path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)

	loaded, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Version, loaded.Version)
	assert.Equal(t, cfg.Chain.RPCURL, loaded.Chain.RPCURL)
	assert.Equal(t, cfg.Trading.SlippageBps, loaded.Trading.SlippageBps)
	assert.Equal(t, cfg.Output.Verbose, loaded.Output.Verbose)
}

func TestDefaults(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "~/.trenchsniper", cfg.Home)
	assert.Equal(t, config.DefaultRPCURL, cfg.Chain.RPCURL)
	assert.False(t, cfg.Chain.SelfHosted)
	assert.Equal(t, "~/.trenchsniper/vault.json", cfg.Vault.Path)
	assert.Equal(t, config.DefaultSlippageBps, cfg.Trading.SlippageBps)
	assert.InDelta(t, config.DefaultMaxBuySOL, cfg.Trading.MaxBuySOL, 0.0001)
	assert.Equal(t, config.DefaultFeeBps, cfg.Fees.Bps)
	assert.Equal(t, "auto", cfg.Output.DefaultFormat)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), cfg)
}

func TestLoadInvalidYAML(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	err := os.WriteFile(path, []byte("invalid: yaml: content: ["), 0o600)
	require.NoError(t, err)

	_, err = config.Load(path)
	assert.Error(t, err)
}

func TestSaveCreatesDirectory(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := config.Defaults()
	err := config.Save(cfg, path)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestConfigPath(t *testing.T) {
	t.Parallel()
	path := config.Path("/home/user/.trenchsniper")
	assert.Equal(t, "/home/user/.trenchsniper/config.yaml", path)
}

func TestDefaultHome(t *testing.T) {
	t.Parallel()
	home := config.DefaultHome()
	assert.Contains(t, home, ".trenchsniper")
}

func TestGetHomeExpandsTilde(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()
	cfg.Home = "~/.trenchsniper"

	home := cfg.GetHome()
	assert.NotContains(t, home, "~")
	assert.Contains(t, home, ".trenchsniper")
}

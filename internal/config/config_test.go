package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/neondash/internal/config"
)

func TestLoadDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir, "", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://rpc.sepolia.org", cfg.RPCURL)
	assert.Equal(t, int64(11155111), cfg.ChainID)
	assert.Equal(t, "https://sepolia.etherscan.io", cfg.ExplorerURL)
	assert.Equal(t, "usd", cfg.Price.Currency)
	assert.Equal(t, 7, cfg.Price.HistoryDays)
	assert.Equal(t, "ethereum", cfg.Price.BaseAsset)
	assert.Equal(t, config.SourceCoinGecko, cfg.Price.BaseSource)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "txHistory", cfg.Ledger.Key)
	assert.Equal(t, 0, cfg.Ledger.MaxEntries)
	assert.Equal(t, 5*time.Minute, cfg.ConfirmTimeout)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, filepath.Join(dir, "neondash.log"), cfg.Log.File)
	assert.Empty(t, cfg.File())
}

func TestLoadReadsConfigFileInDir(t *testing.T) {
	dir := t.TempDir()
	yaml := "rpc_url: http://localhost:8545\nprice:\n  currency: EUR\nledger:\n  max_entries: 50\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := config.Load(dir, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8545", cfg.RPCURL)
	assert.Equal(t, "eur", cfg.Price.Currency)
	assert.Equal(t, 50, cfg.Ledger.MaxEntries)
	assert.Equal(t, "ethereum", cfg.Price.BaseAsset, "unset nested keys keep defaults")
}

func TestLoadExplicitConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(t.TempDir(), "custom.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"chain_id": 1, "explorer_url": "https://etherscan.io/"}`), 0o600))

	cfg, err := config.Load(dir, path, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cfg.ChainID)
	assert.Equal(t, "https://etherscan.io", cfg.ExplorerURL)
	assert.Equal(t, path, cfg.File())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := config.Load(t.TempDir(), filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("price:\n  currency: eur\n"), 0o600))
	t.Setenv("NEONDASH_PRICE_CURRENCY", "gbp")
	t.Setenv("NEONDASH_STORAGE_BACKEND", "badger")

	cfg, err := config.Load(dir, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "gbp", cfg.Price.Currency)
	assert.Equal(t, "badger", cfg.Storage.Backend)
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("NEONDASH_RPC_URL", "http://env:8545")
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	require.NoError(t, flags.Parse([]string{"--rpc", "http://flag:8545"}))

	cfg, err := config.Load(t.TempDir(), "", flags)
	require.NoError(t, err)
	assert.Equal(t, "http://flag:8545", cfg.RPCURL)
}

func TestUnsetFlagDoesNotOverride(t *testing.T) {
	t.Setenv("NEONDASH_RPC_URL", "http://env:8545")
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := config.Load(t.TempDir(), "", flags)
	require.NoError(t, err)
	assert.Equal(t, "http://env:8545", cfg.RPCURL)
}

func TestValidateRejectsBadSource(t *testing.T) {
	t.Setenv("NEONDASH_PRICE_BASE_SOURCE", "oracle")
	_, err := config.Load(t.TempDir(), "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price.base_source")
}

func TestValidateRejectsNegativeCap(t *testing.T) {
	t.Setenv("NEONDASH_LEDGER_MAX_ENTRIES", "-1")
	_, err := config.Load(t.TempDir(), "", nil)
	assert.Error(t, err)
}

func TestSetPersistsAndReloads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, config.Set(dir, "wallet", "alice"))
	require.NoError(t, config.Set(dir, "price.currency", "eur"))

	cfg, err := config.Load(dir, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.Wallet)
	assert.Equal(t, "eur", cfg.Price.Currency)
}

func TestSetUnknownKey(t *testing.T) {
	assert.Error(t, config.Set(t.TempDir(), "network", "base"))
}

func TestResolveDirPrecedence(t *testing.T) {
	t.Setenv(config.HomeEnv, "/from/env")
	dir, err := config.ResolveDir("/from/flag")
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", dir)

	dir, err = config.ResolveDir("")
	require.NoError(t, err)
	assert.Equal(t, "/from/env", dir)
}

func TestExplorerLinks(t *testing.T) {
	cfg, err := config.Load(t.TempDir(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://sepolia.etherscan.io/tx/0xabc", cfg.TxURL("0xabc"))
	assert.Equal(t, "https://sepolia.etherscan.io/address/0xdef", cfg.AddressURL("0xdef"))
}

func TestKeysCoverSettings(t *testing.T) {
	cfg, err := config.Load(t.TempDir(), "", nil)
	require.NoError(t, err)
	settings := cfg.Settings()
	for _, k := range config.Keys() {
		_, ok := settings[k]
		assert.True(t, ok, "missing setting %s", k)
	}
}

func TestRPCFallbacksFromListOrString(t *testing.T) {
	dir := t.TempDir()
	yaml := "rpc_url: http://a:8545\nrpc_fallbacks:\n  - http://b:8545\n  - http://a:8545\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := config.Load(dir, "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a:8545", "http://b:8545"}, cfg.RPCURLs())

	t.Setenv("NEONDASH_RPC_FALLBACKS", "http://c:8545, http://d:8545")
	cfg, err = config.Load(t.TempDir(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://c:8545", "http://d:8545"}, cfg.RPCFallbacks)
	assert.Equal(t, "fastest", cfg.RPCAlgorithm)
}

func TestLoadRejectsUnknownRPCAlgorithm(t *testing.T) {
	t.Setenv("NEONDASH_RPC_ALGORITHM", "round-robin")
	_, err := config.Load(t.TempDir(), "", nil)
	assert.ErrorContains(t, err, "rpc_algorithm")
}

// Package config loads neondash settings from defaults, a config file in the
// config directory, NEONDASH_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "NEONDASH"
	// HomeEnv overrides the config directory.
	HomeEnv = "NEONDASH_HOME"

	configName  = "config"
	walletsFile = "wallets.json"
	logFile     = "neondash.log"
)

// Price source names for price.base_source.
const (
	SourceCoinGecko = "coingecko"
	SourceChainlink = "chainlink"
)

// Config holds every setting the dashboard reads.
type Config struct {
	Dir            string
	RPCURL         string
	RPCFallbacks   []string
	RPCAlgorithm   string
	ChainID        int64
	ExplorerURL    string
	ExplorerAPI    ExplorerAPIConfig
	Price          PriceConfig
	Storage        StorageConfig
	Ledger         LedgerConfig
	Wallet         string
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	RequestTimeout time.Duration
	Log            LogConfig

	file string
}

// ExplorerAPIConfig selects the block explorer APIs used for on-chain activity.
type ExplorerAPIConfig struct {
	EtherscanKey  string
	BlockscoutURL string
	BlockscoutKey string
}

type PriceConfig struct {
	APIURL      string
	Currency    string
	HistoryDays int
	BaseAsset   string
	BaseSource  string
	FeedAddress string
}

type StorageConfig struct {
	Backend string
}

type LedgerConfig struct {
	Key        string
	MaxEntries int
}

type LogConfig struct {
	Level string
	File  string
}

// defaults lists every known key with its default value.
var defaults = map[string]interface{}{
	"rpc_url":                     "https://rpc.sepolia.org",
	"rpc_fallbacks":               []string{},
	"rpc_algorithm":               "fastest",
	"chain_id":                    int64(11155111),
	"explorer_url":                "https://sepolia.etherscan.io",
	"explorer_api.etherscan_key":  "",
	"explorer_api.blockscout_url": "https://eth-sepolia.blockscout.com/api",
	"explorer_api.blockscout_key": "",
	"price.api_url":               "https://api.coingecko.com/api/v3",
	"price.currency":              "usd",
	"price.history_days":          7,
	"price.base_asset":            "ethereum",
	"price.base_source":           SourceCoinGecko,
	"price.feed_address":          "0x694AA1769357215DE4FAC081bf1f309aDC325306",
	"storage.backend":             "file",
	"ledger.key":                  "txHistory",
	"ledger.max_entries":          0,
	"wallet":                      "",
	"confirm_timeout":             5 * time.Minute,
	"poll_interval":               2 * time.Second,
	"request_timeout":             15 * time.Second,
	"log.level":                   "info",
	"log.file":                    "",
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"rpc":          "rpc_url",
	"currency":     "price.currency",
	"storage":      "storage.backend",
	"wallet":       "wallet",
	"log-level":    "log.level",
	"price-source": "price.base_source",
}

// Keys returns every known config key, sorted.
func Keys() []string {
	out := make([]string, 0, len(defaults))
	for k := range defaults {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ResolveDir picks the config directory: the flag value, then NEONDASH_HOME,
// then ~/.neondash.
func ResolveDir(flagDir string) (string, error) {
	if flagDir != "" {
		return flagDir, nil
	}
	if env := os.Getenv(HomeEnv); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home dir: %w", err)
	}
	return filepath.Join(home, ".neondash"), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

// Load merges defaults, the config file, environment and flags. cfgFile
// overrides the config file path; otherwise dir/config.{yaml,json,toml} is
// read when present.
func Load(dir, cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	v := newViper()
	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flags: %w", err)
				}
			}
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		Dir:          dir,
		RPCURL:       v.GetString("rpc_url"),
		RPCFallbacks: splitList(v.GetStringSlice("rpc_fallbacks")),
		RPCAlgorithm: strings.ToLower(v.GetString("rpc_algorithm")),
		ChainID:      v.GetInt64("chain_id"),
		ExplorerURL:  strings.TrimRight(v.GetString("explorer_url"), "/"),
		ExplorerAPI: ExplorerAPIConfig{
			EtherscanKey:  v.GetString("explorer_api.etherscan_key"),
			BlockscoutURL: v.GetString("explorer_api.blockscout_url"),
			BlockscoutKey: v.GetString("explorer_api.blockscout_key"),
		},
		Price: PriceConfig{
			APIURL:      v.GetString("price.api_url"),
			Currency:    strings.ToLower(v.GetString("price.currency")),
			HistoryDays: v.GetInt("price.history_days"),
			BaseAsset:   v.GetString("price.base_asset"),
			BaseSource:  strings.ToLower(v.GetString("price.base_source")),
			FeedAddress: v.GetString("price.feed_address"),
		},
		Storage: StorageConfig{Backend: strings.ToLower(v.GetString("storage.backend"))},
		Ledger: LedgerConfig{
			Key:        v.GetString("ledger.key"),
			MaxEntries: v.GetInt("ledger.max_entries"),
		},
		Wallet:         v.GetString("wallet"),
		ConfirmTimeout: v.GetDuration("confirm_timeout"),
		PollInterval:   v.GetDuration("poll_interval"),
		RequestTimeout: v.GetDuration("request_timeout"),
		Log: LogConfig{
			Level: v.GetString("log.level"),
			File:  v.GetString("log.file"),
		},
		file: v.ConfigFileUsed(),
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(dir, logFile)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the dashboard cannot run with.
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc_url is required")
	}
	switch c.RPCAlgorithm {
	case "fastest", "failover":
	default:
		return fmt.Errorf("rpc_algorithm must be fastest or failover, got %q", c.RPCAlgorithm)
	}
	if c.ChainID <= 0 {
		return fmt.Errorf("chain_id must be positive, got %d", c.ChainID)
	}
	switch c.Price.BaseSource {
	case SourceCoinGecko, SourceChainlink:
	default:
		return fmt.Errorf("price.base_source must be %s or %s, got %q", SourceCoinGecko, SourceChainlink, c.Price.BaseSource)
	}
	if c.Ledger.MaxEntries < 0 {
		return fmt.Errorf("ledger.max_entries must not be negative")
	}
	if c.Ledger.Key == "" {
		return fmt.Errorf("ledger.key is required")
	}
	return nil
}

// RPCURLs returns the primary endpoint followed by the fallbacks, without
// duplicates.
func (c *Config) RPCURLs() []string {
	seen := map[string]bool{c.RPCURL: true}
	urls := []string{c.RPCURL}
	for _, u := range c.RPCFallbacks {
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	return urls
}

// splitList accepts both YAML lists and a single comma separated value.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// File returns the config file that was read, or "" when none was.
func (c *Config) File() string { return c.file }

// WalletsPath is where wallet metadata is stored.
func (c *Config) WalletsPath() string { return filepath.Join(c.Dir, walletsFile) }

// TxURL links a transaction hash on the block explorer.
func (c *Config) TxURL(hash string) string {
	return c.ExplorerURL + "/tx/" + hash
}

// AddressURL links an address on the block explorer.
func (c *Config) AddressURL(addr string) string {
	return c.ExplorerURL + "/address/" + addr
}

// Settings returns every effective setting keyed by config key.
func (c *Config) Settings() map[string]string {
	return map[string]string{
		"rpc_url":                     c.RPCURL,
		"rpc_fallbacks":               strings.Join(c.RPCFallbacks, ","),
		"rpc_algorithm":               c.RPCAlgorithm,
		"chain_id":                    fmt.Sprint(c.ChainID),
		"explorer_url":                c.ExplorerURL,
		"explorer_api.etherscan_key":  mask(c.ExplorerAPI.EtherscanKey),
		"explorer_api.blockscout_url": c.ExplorerAPI.BlockscoutURL,
		"explorer_api.blockscout_key": mask(c.ExplorerAPI.BlockscoutKey),
		"price.api_url":               c.Price.APIURL,
		"price.currency":              c.Price.Currency,
		"price.history_days":          fmt.Sprint(c.Price.HistoryDays),
		"price.base_asset":            c.Price.BaseAsset,
		"price.base_source":           c.Price.BaseSource,
		"price.feed_address":          c.Price.FeedAddress,
		"storage.backend":             c.Storage.Backend,
		"ledger.key":                  c.Ledger.Key,
		"ledger.max_entries":          fmt.Sprint(c.Ledger.MaxEntries),
		"wallet":                      c.Wallet,
		"confirm_timeout":             c.ConfirmTimeout.String(),
		"poll_interval":               c.PollInterval.String(),
		"request_timeout":             c.RequestTimeout.String(),
		"log.level":                   c.Log.Level,
		"log.file":                    c.Log.File,
	}
}

// mask hides all but the last four characters of a secret.
func mask(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}

// Set persists key=value into dir/config.yaml, keeping other file settings.
func Set(dir, key, value string) error {
	if _, ok := defaults[key]; !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("could not create config dir: %w", err)
	}
	path := filepath.Join(dir, configName+".yaml")

	v := viper.New()
	v.SetConfigFile(path)
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}
	v.Set(key, value)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

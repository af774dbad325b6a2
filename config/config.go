package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gapnode/app"
	"gapnode/messages"

	"github.com/spf13/viper"
	tmconfig "github.com/tendermint/tendermint/config"
	"github.com/tendermint/tendermint/libs/cli/flags"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	EnvPrefix  = "GAPNODE"
	configFile = "config/config.toml"
)

type Config struct {
	Home     string        `mapstructure:"-"`
	LogLevel string        `mapstructure:"log_level"`
	Indexer  IndexerConfig `mapstructure:"indexer"`
	Poll     PollConfig    `mapstructure:"poll"`
	Wallet   WalletConfig  `mapstructure:"wallet"`
}

type IndexerConfig struct {
	URL         string        `mapstructure:"url"`
	ListenAddr  string        `mapstructure:"listen_addr"`
	DBBackend   string        `mapstructure:"db_backend"`
	DBDir       string        `mapstructure:"db_dir"`
	IndexDelay  time.Duration `mapstructure:"index_delay"`
	CatalogFile string        `mapstructure:"catalog_file"`
}

type PollConfig struct {
	Attempts int           `mapstructure:"attempts"`
	Interval time.Duration `mapstructure:"interval"`
}

type WalletConfig struct {
	KeyFile string `mapstructure:"key_file"`
	Network uint64 `mapstructure:"network"`
}

func Default(home string) *Config {
	return &Config{
		Home:     home,
		LogLevel: tmconfig.DefaultLogLevel(),
		Indexer: IndexerConfig{
			URL:         "http://127.0.0.1:26680",
			ListenAddr:  "127.0.0.1:26680",
			DBBackend:   "goleveldb",
			DBDir:       "data",
			IndexDelay:  3 * time.Second,
			CatalogFile: "config/catalog.yaml",
		},
		Poll: PollConfig{
			Attempts: app.DefaultPollAttempts,
			Interval: app.DefaultPollInterval,
		},
		Wallet: WalletConfig{
			KeyFile: "config/wallet.key",
			Network: 10,
		},
	}
}

// Load reads <home>/config/config.toml when it exists. Defaults fill the missing keys and
// GAPNODE_ prefixed environment variables override both, GAPNODE_POLL_ATTEMPTS for poll.attempts.
func Load(home string) (*Config, error) {
	v := newViper(home)
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Home = home
	return cfg, cfg.ValidateBasic()
}

// Write stores the configuration in <home>/config/config.toml.
func (cfg *Config) Write() error {
	if err := os.MkdirAll(filepath.Join(cfg.Home, "config"), 0700); err != nil {
		return err
	}
	v := viper.New()
	for key, value := range cfg.settings() {
		v.Set(key, value)
	}
	return v.WriteConfigAs(cfg.Path(configFile))
}

func (cfg *Config) ValidateBasic() error {
	if cfg.Poll.Attempts <= 0 {
		return errors.New("poll.attempts must be positive")
	} else if cfg.Poll.Interval < 0 {
		return errors.New("poll.interval can't be negative")
	} else if cfg.Indexer.IndexDelay < 0 {
		return errors.New("indexer.index_delay can't be negative")
	} else if cfg.Indexer.URL == "" {
		return errors.New("indexer.url is required")
	} else if !messages.IsSupportedNetwork(cfg.Wallet.Network) {
		return fmt.Errorf("wallet.network %d is not supported", cfg.Wallet.Network)
	}
	return nil
}

// Path resolves a configured path against the home directory.
func (cfg *Config) Path(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cfg.Home, path)
}

func (cfg *Config) Logger(w io.Writer) (log.Logger, error) {
	logger := log.NewTMLogger(log.NewSyncWriter(w))
	return flags.ParseLogLevel(cfg.LogLevel, logger, tmconfig.DefaultLogLevel())
}

func (cfg *Config) PollerOptions() []app.PollerOption {
	return []app.PollerOption{app.WithPollAttempts(cfg.Poll.Attempts), app.WithPollInterval(cfg.Poll.Interval)}
}

func (cfg *Config) settings() map[string]interface{} {
	return map[string]interface{}{
		"log_level":            cfg.LogLevel,
		"indexer.url":          cfg.Indexer.URL,
		"indexer.listen_addr":  cfg.Indexer.ListenAddr,
		"indexer.db_backend":   cfg.Indexer.DBBackend,
		"indexer.db_dir":       cfg.Indexer.DBDir,
		"indexer.index_delay":  cfg.Indexer.IndexDelay.String(),
		"indexer.catalog_file": cfg.Indexer.CatalogFile,
		"poll.attempts":        cfg.Poll.Attempts,
		"poll.interval":        cfg.Poll.Interval.String(),
		"wallet.key_file":      cfg.Wallet.KeyFile,
		"wallet.network":       int64(cfg.Wallet.Network),
	}
}

func newViper(home string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(filepath.Join(home, configFile))
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range Default(home).settings() {
		v.SetDefault(key, value)
	}
	return v
}

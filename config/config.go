package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultListenAddress = ":8086"
	DefaultDataDir       = "./rwd-data"
	DefaultEnvironment   = "local"
	DefaultJWTSecretEnv  = "RWD_JWT_SECRET"
	DefaultMaxBodyBytes  = 1 << 20
)

type Config struct {
	ListenAddress string    `toml:"ListenAddress"`
	DataDir       string    `toml:"DataDir"`
	GenesisFile   string    `toml:"GenesisFile"`
	Environment   string    `toml:"Environment"`
	Program       Program   `toml:"program"`
	Journal       Journal   `toml:"journal"`
	Auth          Auth      `toml:"auth"`
	RateLimit     RateLimit `toml:"rate_limit"`
	Logging       Logging   `toml:"logging"`
	Telemetry     Telemetry `toml:"telemetry"`
	Server        Server    `toml:"server"`
}

// Load loads the configuration from the given path. A missing file is
// replaced by a freshly written default.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	} else if err != nil {
		return nil, err
	}

	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration written on first start.
func Default() *Config {
	return &Config{
		ListenAddress: DefaultListenAddress,
		DataDir:       DefaultDataDir,
		Environment:   DefaultEnvironment,
		Program: Program{
			Rate:               10,
			CollateralDecimals: 6,
		},
		Auth: Auth{
			JWTSecretEnv: DefaultJWTSecretEnv,
			ClockSkew:    Duration{30 * time.Second},
		},
		RateLimit: RateLimit{
			RequestsPerSecond: 20,
			Burst:             40,
		},
		Logging: Logging{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 14,
		},
		Telemetry: Telemetry{
			Endpoint:    "localhost:4318",
			Insecure:    true,
			SampleRatio: 1,
		},
		Server: Server{
			ReadHeaderTimeout: Duration{5 * time.Second},
			ReadTimeout:       Duration{15 * time.Second},
			WriteTimeout:      Duration{15 * time.Second},
			IdleTimeout:       Duration{60 * time.Second},
			ShutdownTimeout:   Duration{10 * time.Second},
			MaxBodyBytes:      DefaultMaxBodyBytes,
		},
	}
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = DefaultListenAddress
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = DefaultDataDir
	}
	if strings.TrimSpace(c.Environment) == "" {
		c.Environment = DefaultEnvironment
	}
	if strings.TrimSpace(c.Journal.DSN) == "" {
		c.Journal.DSN = filepath.Join(c.DataDir, "journal.db")
	}
	if strings.TrimSpace(c.Auth.JWTSecretEnv) == "" {
		c.Auth.JWTSecretEnv = DefaultJWTSecretEnv
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// LevelDBPath is the on-disk location of the ledger database.
func (c *Config) LevelDBPath() string {
	return filepath.Join(c.DataDir, "ledger")
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	cfg.applyDefaults()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

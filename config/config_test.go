package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rwdledger/crypto"
	"rwdledger/native/rewards"
)

func TestLoadCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "rewardsd.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, DefaultListenAddress, cfg.ListenAddress)
	require.Equal(t, uint64(10), cfg.Program.Rate)
	require.Equal(t, filepath.Join(DefaultDataDir, "journal.db"), cfg.Journal.DSN)

	_, err = os.Stat(path)
	require.NoError(t, err)

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, reloaded)
}

func TestLoadParsesSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rewardsd.toml")
	contents := `ListenAddress = "127.0.0.1:9000"
DataDir = "/var/lib/rwd"
GenesisFile = "genesis.yaml"
Environment = "staging"

[program]
Rate = 25
CollateralDecimals = 6

[journal]
DSN = "postgres://rwd@localhost/rwd"

[auth]
Issuer = "ops"
RequireReadAuth = true
ClockSkew = "45s"

[rate_limit]
RequestsPerSecond = 5.5
Burst = 10
TrustProxyHeaders = true

[logging]
Level = "debug"
File = "/var/log/rwd.log"

[telemetry]
Traces = true
SampleRatio = 0.25

[server]
ShutdownTimeout = "3s"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.ListenAddress)
	require.Equal(t, uint64(25), cfg.Program.Rate)
	require.Equal(t, "postgres://rwd@localhost/rwd", cfg.Journal.DSN)
	require.True(t, cfg.Auth.RequireReadAuth)
	require.Equal(t, 45*time.Second, cfg.Auth.ClockSkew.Duration)
	require.Equal(t, DefaultJWTSecretEnv, cfg.Auth.JWTSecretEnv)
	require.Equal(t, 5.5, cfg.RateLimit.RequestsPerSecond)
	require.True(t, cfg.RateLimit.TrustProxyHeaders)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.True(t, cfg.Telemetry.Traces)
	require.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout.Duration)
	require.Equal(t, 15*time.Second, cfg.Server.ReadTimeout.Duration)
	require.Equal(t, filepath.Join("/var/lib/rwd", "ledger"), cfg.LevelDBPath())
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rewardsd.toml")
	require.NoError(t, os.WriteFile(path, []byte("ValidatorKey = \"abc\"\n"), 0o644))

	_, err := Load(path)
	require.ErrorContains(t, err, "ValidatorKey")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rewardsd.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nReadTimeout = \"soon\"\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"zero rate":       func(c *Config) { c.Program.Rate = 0 },
		"bad program id":  func(c *Config) { c.Program.ProgramID = "nope" },
		"bad collateral":  func(c *Config) { c.Program.CollateralMint = "rwd1invalid" },
		"negative burst":  func(c *Config) { c.RateLimit.Burst = -1 },
		"rate no burst":   func(c *Config) { c.RateLimit.Burst = 0 },
		"sample ratio":    func(c *Config) { c.Telemetry.SampleRatio = 1.5 },
		"unknown level":   func(c *Config) { c.Logging.Level = "loud" },
		"empty listen":    func(c *Config) { c.ListenAddress = " " },
		"negative client": func(c *Config) { c.Server.ReadTimeout = Duration{-time.Second} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
	require.NoError(t, Default().Validate())
}

func TestRewardsParams(t *testing.T) {
	var collateral, override [20]byte
	collateral[19] = 1
	override[19] = 2

	cfg := Default()
	params, err := cfg.RewardsParams(collateral)
	require.NoError(t, err)
	require.Equal(t, rewards.DefaultProgramID, params.ProgramID)
	require.Equal(t, collateral, params.CollateralMint)

	cfg.Program.CollateralMint = crypto.Bech32(override)
	params, err = cfg.RewardsParams(collateral)
	require.NoError(t, err)
	require.Equal(t, override, params.CollateralMint)

	_, err = Default().RewardsParams([20]byte{})
	require.Error(t, err)
}

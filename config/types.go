package config

import (
	"fmt"
	"strings"
	"time"
)

// Duration wraps time.Duration so TOML files can use strings like "15s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	trimmed := strings.TrimSpace(string(text))
	if trimmed == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(trimmed)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", trimmed, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText renders the duration in Go notation.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Program fixes the economic parameters of the deployment. Addresses are
// bech32 strings; an empty CollateralMint is taken from the genesis file.
type Program struct {
	ProgramID          string `toml:"ProgramID"`
	Rate               uint64 `toml:"Rate"`
	CollateralMint     string `toml:"CollateralMint"`
	CollateralDecimals uint8  `toml:"CollateralDecimals"`
}

// Journal selects the event and nonce journal backend. DSNs prefixed with
// postgres:// or postgresql:// use Postgres, anything else is treated as a
// SQLite path.
type Journal struct {
	DSN string `toml:"DSN"`
}

// Auth configures bearer token checks for read endpoints. Write endpoints
// are always authenticated by request signatures.
type Auth struct {
	JWTSecretEnv    string   `toml:"JWTSecretEnv"`
	Issuer          string   `toml:"Issuer"`
	Audience        string   `toml:"Audience"`
	RequireReadAuth bool     `toml:"RequireReadAuth"`
	ClockSkew       Duration `toml:"ClockSkew"`
}

// RateLimit bounds request throughput per client IP. TrustProxyHeaders keys
// clients by X-Real-IP/X-Forwarded-For and must only be enabled behind a
// proxy that overwrites those headers.
type RateLimit struct {
	RequestsPerSecond float64 `toml:"RequestsPerSecond"`
	Burst             int     `toml:"Burst"`
	TrustProxyHeaders bool    `toml:"TrustProxyHeaders"`
}

// Logging tunes the structured logger.
type Logging struct {
	Level      string `toml:"Level"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
	Compress   bool   `toml:"Compress"`
}

// Telemetry configures the OTLP exporters.
type Telemetry struct {
	Endpoint    string  `toml:"Endpoint"`
	Insecure    bool    `toml:"Insecure"`
	Headers     string  `toml:"Headers"`
	Traces      bool    `toml:"Traces"`
	Metrics     bool    `toml:"Metrics"`
	SampleRatio float64 `toml:"SampleRatio"`
}

// Server carries HTTP timeouts.
type Server struct {
	ReadHeaderTimeout Duration `toml:"ReadHeaderTimeout"`
	ReadTimeout       Duration `toml:"ReadTimeout"`
	WriteTimeout      Duration `toml:"WriteTimeout"`
	IdleTimeout       Duration `toml:"IdleTimeout"`
	ShutdownTimeout   Duration `toml:"ShutdownTimeout"`
	MaxBodyBytes      int64    `toml:"MaxBodyBytes"`
}

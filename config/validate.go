package config

import (
	"fmt"
	"strings"

	"rwdledger/crypto"
	"rwdledger/native/rewards"
)

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil")
	}
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("ListenAddress must be set")
	}
	if c.Program.Rate == 0 {
		return fmt.Errorf("program: Rate must be positive")
	}
	if id := strings.TrimSpace(c.Program.ProgramID); id != "" {
		if _, err := crypto.ParseAddress(id); err != nil {
			return fmt.Errorf("program: ProgramID: %w", err)
		}
	}
	if mint := strings.TrimSpace(c.Program.CollateralMint); mint != "" {
		if _, err := crypto.ParseAddress(mint); err != nil {
			return fmt.Errorf("program: CollateralMint: %w", err)
		}
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit: values must not be negative")
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst == 0 {
		return fmt.Errorf("rate_limit: Burst must be positive when RequestsPerSecond is set")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry: SampleRatio must be within [0,1]")
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging: unknown Level %q", c.Logging.Level)
	}
	if c.Server.ReadTimeout.Duration < 0 || c.Server.WriteTimeout.Duration < 0 || c.Server.ShutdownTimeout.Duration < 0 {
		return fmt.Errorf("server: timeouts must not be negative")
	}
	return nil
}

// RewardsParams converts the program section into engine parameters. When
// CollateralMint is empty, fallbackCollateral is used.
func (c *Config) RewardsParams(fallbackCollateral [20]byte) (rewards.Params, error) {
	params := rewards.DefaultParams()
	params.Rate = c.Program.Rate
	params.CollateralDecimals = c.Program.CollateralDecimals
	if id := strings.TrimSpace(c.Program.ProgramID); id != "" {
		raw, err := crypto.ParseAddress(id)
		if err != nil {
			return rewards.Params{}, fmt.Errorf("program id: %w", err)
		}
		params.ProgramID = raw
	}
	params.CollateralMint = fallbackCollateral
	if mint := strings.TrimSpace(c.Program.CollateralMint); mint != "" {
		raw, err := crypto.ParseAddress(mint)
		if err != nil {
			return rewards.Params{}, fmt.Errorf("collateral mint: %w", err)
		}
		params.CollateralMint = raw
	}
	if err := params.Validate(); err != nil {
		return rewards.Params{}, err
	}
	return params, nil
}

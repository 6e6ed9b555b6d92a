package rewards

import (
	"fmt"

	"rwdledger/core/state"
)

const (
	// DefaultRate is the number of reward base units issued per collateral
	// base unit.
	DefaultRate uint64 = 10
	// DefaultCollateralDecimals matches a six-decimal stablecoin.
	DefaultCollateralDecimals uint8 = 6
)

// DefaultProgramID namespaces every address derived by the rewards module.
var DefaultProgramID = [20]byte{'r', 'w', 'd', '-', 'r', 'e', 'w', 'a', 'r', 'd', 's', '-', 'p', 'r', 'o', 'g', 'r', 'a', 'm', '1'}

// Params configures the rewards engine. They are fixed for the lifetime of a
// deployment.
type Params struct {
	ProgramID          [20]byte
	Rate               uint64
	CollateralMint     [20]byte
	CollateralDecimals uint8
}

// DefaultParams returns the baseline configuration. CollateralMint must still
// be supplied by the deployment.
func DefaultParams() Params {
	return Params{
		ProgramID:          DefaultProgramID,
		Rate:               DefaultRate,
		CollateralDecimals: DefaultCollateralDecimals,
	}
}

// Validate performs basic sanity checks.
func (p Params) Validate() error {
	if p.ProgramID == ([20]byte{}) {
		return fmt.Errorf("rewards: program id must be set")
	}
	if p.Rate == 0 {
		return fmt.Errorf("rewards: rate must be positive")
	}
	if p.CollateralMint == ([20]byte{}) {
		return fmt.Errorf("rewards: collateral mint must be set")
	}
	return nil
}

// MintAddress is the derived address of the reward token mint.
func (p Params) MintAddress() [20]byte {
	return state.DeriveAddress(p.ProgramID, MintSeed)
}

// MintAuthority is the program-owned authority allowed to mint reward tokens.
func (p Params) MintAuthority() [20]byte {
	mint := p.MintAddress()
	return state.DeriveAddress(p.ProgramID, MintAuthoritySeed, mint[:])
}

// VaultAddress is the reserve vault token account holding collateral.
func (p Params) VaultAddress() [20]byte {
	mint := p.MintAddress()
	return state.DeriveAddress(p.ProgramID, VaultSeed, mint[:])
}

// VaultAuthority owns the reserve vault.
func (p Params) VaultAuthority() [20]byte {
	mint := p.MintAddress()
	return state.DeriveAddress(p.ProgramID, VaultAuthoritySeed, mint[:])
}

package rewards

import (
	errorsmod "cosmossdk.io/errors"

	"rwdledger/core/state"
)

// CollateralVault moves collateral between owners and the reserve vault.
type CollateralVault struct {
	state     engineState
	mint      [20]byte
	address   [20]byte
	authority [20]byte
	decimals  uint8
}

func newCollateralVault(st engineState, cfg *TokenConfig) *CollateralVault {
	return &CollateralVault{
		state:     st,
		mint:      cfg.CollateralMint,
		address:   cfg.Vault,
		authority: cfg.VaultAuthority,
		decimals:  cfg.CollateralDecimals,
	}
}

// ChargeCollateral moves amount from the owner's collateral account into the
// vault, authorised by the owner. An owner without a collateral account holds
// nothing.
func (v *CollateralVault) ChargeCollateral(from [20]byte, amount uint64) error {
	source := state.AssociatedAccount(from, v.mint)
	balance, err := v.state.Balance(source)
	if err != nil {
		return err
	}
	if balance < amount {
		return errorsmod.Wrapf(ErrInsufficientBalance, "collateral balance %d below required %d", balance, amount)
	}
	err = v.state.TransferChecked(v.mint, source, v.address, from, amount, v.decimals)
	return mapLedgerErr(err)
}

// ReleaseCollateral moves amount from the vault to the owner's collateral
// account, authorised by the vault authority. The destination account is
// created when missing.
func (v *CollateralVault) ReleaseCollateral(to [20]byte, amount uint64) error {
	destination := state.AssociatedAccount(to, v.mint)
	if _, err := v.state.EnsureTokenAccount(destination, v.mint, to); err != nil {
		return err
	}
	err := v.state.TransferChecked(v.mint, v.address, destination, v.authority, amount, v.decimals)
	return mapLedgerErr(err)
}

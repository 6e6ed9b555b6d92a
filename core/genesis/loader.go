package genesis

import (
	"errors"
	"fmt"

	"rwdledger/core/state"
	"rwdledger/core/types"
)

// ErrAlreadyApplied is returned when the collateral mint already exists.
var ErrAlreadyApplied = errors.New("genesis: already applied")

// Apply registers the collateral token and credits every allocation. It must
// run against an empty ledger.
func Apply(spec *GenesisSpec, manager *state.Manager) error {
	if spec == nil {
		return fmt.Errorf("genesis spec must not be nil")
	}
	if manager == nil {
		return fmt.Errorf("state manager must not be nil")
	}
	mint := spec.CollateralMint()
	if _, err := manager.Token(mint); err == nil {
		return ErrAlreadyApplied
	} else if !errors.Is(err, state.ErrTokenNotFound) {
		return err
	}
	if err := manager.RegisterToken(types.TokenMetadata{
		Mint:          mint,
		Name:          spec.Collateral.Name,
		Symbol:        spec.Collateral.Symbol,
		Decimals:      spec.Collateral.Decimals,
		MintAuthority: spec.CollateralAuthority(),
	}); err != nil {
		return fmt.Errorf("genesis: register collateral: %w", err)
	}
	for _, alloc := range spec.Allocations() {
		account := state.AssociatedAccount(alloc.Owner, mint)
		if _, err := manager.EnsureTokenAccount(account, mint, alloc.Owner); err != nil {
			return fmt.Errorf("genesis: open account: %w", err)
		}
		if err := manager.MintTo(mint, account, spec.CollateralAuthority(), alloc.Amount); err != nil {
			return fmt.Errorf("genesis: fund account: %w", err)
		}
	}
	return nil
}

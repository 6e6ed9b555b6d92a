package rewards

import (
	errorsmod "cosmossdk.io/errors"

	"rwdledger/core/state"
	"rwdledger/native/fees"
)

// mintTo credits amount of the reward token to owner's associated account,
// creating it when needed. Zero amounts are skipped.
func (e *Engine) mintTo(st engineState, cfg *TokenConfig, owner [20]byte, amount uint64) error {
	if amount == 0 {
		return nil
	}
	account := state.AssociatedAccount(owner, cfg.Mint)
	if _, err := st.EnsureTokenAccount(account, cfg.Mint, owner); err != nil {
		return err
	}
	return mapLedgerErr(st.MintTo(cfg.Mint, account, cfg.MintAuthority, amount))
}

// Mint issues gross reward tokens against collateral. The caller pays
// gross / Rate collateral into the vault, the mint fee is issued to the fee
// collector and the remainder to the caller.
func (e *Engine) Mint(caller [20]byte, gross uint64) (*MintEvent, error) {
	st, err := e.withState()
	if err != nil {
		return nil, err
	}
	if isZeroAddress(caller) {
		return nil, errorsmod.Wrap(ErrUnauthorized, "caller required")
	}
	if gross == 0 {
		return nil, zeroAmount(OperationMint)
	}
	cfg, err := e.requireToken(st)
	if err != nil {
		return nil, err
	}
	freeze, err := e.requireFreeze(st)
	if err != nil {
		return nil, err
	}
	if err := CheckOperationAllowed(freeze, OperationMint); err != nil {
		return nil, err
	}
	schedule, err := e.requireFees(st)
	if err != nil {
		return nil, err
	}

	split := fees.Apply(gross, schedule.MintFeeBps)
	collateral := cfg.CollateralFor(gross)

	if collateral > 0 {
		if err := newCollateralVault(st, cfg).ChargeCollateral(caller, collateral); err != nil {
			return nil, err
		}
	}
	if err := e.mintTo(st, cfg, schedule.FeeCollector, split.Fee); err != nil {
		return nil, err
	}
	if err := e.mintTo(st, cfg, caller, split.Net); err != nil {
		return nil, err
	}

	evt := &MintEvent{
		Minter:       caller,
		Receiver:     caller,
		AmountMinted: split.Net,
		USDCSpent:    collateral,
		FeeAmount:    split.Fee,
		FeeCollector: schedule.FeeCollector,
	}
	e.emit(*evt)
	return evt, nil
}

package rewards

import (
	errorsmod "cosmossdk.io/errors"

	"rwdledger/core/state"
	"rwdledger/native/fees"
)

// Burn redeems gross reward tokens for collateral. The redemption fee is
// re-issued to the fee collector, gross is burned from the caller and
// (gross - fee) / Rate collateral is released from the vault.
func (e *Engine) Burn(caller [20]byte, gross uint64) (*BurnEvent, error) {
	st, err := e.withState()
	if err != nil {
		return nil, err
	}
	if isZeroAddress(caller) {
		return nil, errorsmod.Wrap(ErrUnauthorized, "caller required")
	}
	if gross == 0 {
		return nil, zeroAmount(OperationBurn)
	}
	cfg, err := e.requireToken(st)
	if err != nil {
		return nil, err
	}
	freeze, err := e.requireFreeze(st)
	if err != nil {
		return nil, err
	}
	if err := CheckOperationAllowed(freeze, OperationBurn); err != nil {
		return nil, err
	}
	schedule, err := e.requireFees(st)
	if err != nil {
		return nil, err
	}

	split := fees.Apply(gross, schedule.RedemptionFeeBps)
	collateral := cfg.CollateralFor(split.Net)

	source := state.AssociatedAccount(caller, cfg.Mint)
	balance, err := st.Balance(source)
	if err != nil {
		return nil, err
	}
	if balance < gross {
		return nil, errorsmod.Wrapf(ErrInsufficientBalance, "balance %d below burn amount %d", balance, gross)
	}

	if collateral > 0 {
		if err := newCollateralVault(st, cfg).ReleaseCollateral(caller, collateral); err != nil {
			return nil, err
		}
	}
	if err := e.mintTo(st, cfg, schedule.FeeCollector, split.Fee); err != nil {
		return nil, err
	}
	if err := st.BurnFrom(cfg.Mint, source, caller, gross); err != nil {
		return nil, mapLedgerErr(err)
	}

	evt := &BurnEvent{
		From:         caller,
		AmountBurned: gross,
		FeeAmount:    split.Fee,
		USDCAmount:   collateral,
		FeeCollector: schedule.FeeCollector,
	}
	e.emit(*evt)
	return evt, nil
}

package rewards

import (
	errorsmod "cosmossdk.io/errors"

	"rwdledger/core/state"
	"rwdledger/native/fees"
)

// Transfer moves amount reward tokens from caller to recipient. The transfer
// fee is routed to the fee collector and recipient receives the remainder.
func (e *Engine) Transfer(caller, recipient [20]byte, amount uint64) (*TransferEvent, error) {
	st, err := e.withState()
	if err != nil {
		return nil, err
	}
	if isZeroAddress(caller) {
		return nil, errorsmod.Wrap(ErrUnauthorized, "caller required")
	}
	if isZeroAddress(recipient) {
		return nil, errorsmod.Wrap(ErrOperationNotAllowed, "recipient required")
	}
	if amount == 0 {
		return nil, zeroAmount(OperationTransfer)
	}
	cfg, err := e.requireToken(st)
	if err != nil {
		return nil, err
	}
	freeze, err := e.requireFreeze(st)
	if err != nil {
		return nil, err
	}
	if err := CheckOperationAllowed(freeze, OperationTransfer); err != nil {
		return nil, err
	}
	schedule, err := e.requireFees(st)
	if err != nil {
		return nil, err
	}

	split := fees.Apply(amount, schedule.TransferFeeBps)
	source := state.AssociatedAccount(caller, cfg.Mint)
	balance, err := st.Balance(source)
	if err != nil {
		return nil, err
	}
	if balance < amount {
		return nil, errorsmod.Wrapf(ErrInsufficientBalance, "balance %d below transfer amount %d", balance, amount)
	}

	if split.Fee > 0 {
		if err := e.transferTo(st, cfg, caller, schedule.FeeCollector, split.Fee); err != nil {
			return nil, err
		}
	}
	if split.Net > 0 {
		if err := e.transferTo(st, cfg, caller, recipient, split.Net); err != nil {
			return nil, err
		}
	}

	evt := &TransferEvent{
		Source:      caller,
		Destination: recipient,
		FeeAmount:   split.Fee,
		Amount:      amount,
	}
	e.emit(*evt)
	return evt, nil
}

func (e *Engine) transferTo(st engineState, cfg *TokenConfig, from, to [20]byte, amount uint64) error {
	source := state.AssociatedAccount(from, cfg.Mint)
	destination := state.AssociatedAccount(to, cfg.Mint)
	if _, err := st.EnsureTokenAccount(destination, cfg.Mint, to); err != nil {
		return err
	}
	return mapLedgerErr(st.TransferChecked(cfg.Mint, source, destination, from, amount, cfg.Decimals))
}

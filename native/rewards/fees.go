package rewards

import (
	errorsmod "cosmossdk.io/errors"

	"rwdledger/native/fees"
)

func validateBps(field string, bps uint16) error {
	if err := fees.ValidateBps(field, bps); err != nil {
		return errorsmod.Wrap(ErrBpsOutOfRange, err.Error())
	}
	return nil
}

// InitializeFees stores the fee schedule. The first successful caller becomes
// the fee authority; later calls fail.
func (e *Engine) InitializeFees(caller [20]byte, schedule FeeSchedule) (*FeeSchedule, error) {
	st, err := e.withState()
	if err != nil {
		return nil, err
	}
	if isZeroAddress(caller) {
		return nil, errorsmod.Wrap(ErrUnauthorized, "caller required")
	}
	if _, ok, err := loadFees(st); err != nil {
		return nil, err
	} else if ok {
		return nil, errorsmod.Wrap(ErrOperationNotAllowed, "fees already initialized")
	}
	if err := validateBps("mint_fee_bps", schedule.MintFeeBps); err != nil {
		return nil, err
	}
	if err := validateBps("transfer_fee_bps", schedule.TransferFeeBps); err != nil {
		return nil, err
	}
	if err := validateBps("redemption_fee_bps", schedule.RedemptionFeeBps); err != nil {
		return nil, err
	}
	if isZeroAddress(schedule.FeeCollector) {
		return nil, errorsmod.Wrap(ErrOperationNotAllowed, "fee collector required")
	}
	schedule.Authority = caller
	if err := storeFees(st, &schedule); err != nil {
		return nil, err
	}
	e.log().Info("rewards fees initialized",
		"mint_fee_bps", schedule.MintFeeBps,
		"transfer_fee_bps", schedule.TransferFeeBps,
		"redemption_fee_bps", schedule.RedemptionFeeBps,
		"fee_collector", hexAddr(schedule.FeeCollector))
	e.emit(FeesInitializedEvent{Schedule: schedule})
	return &schedule, nil
}

// UpdateFees applies patch to the stored schedule. Only the fee authority may
// update; absent patch fields are left unchanged.
func (e *Engine) UpdateFees(caller [20]byte, patch FeePatch) (*FeeSchedule, error) {
	st, err := e.withState()
	if err != nil {
		return nil, err
	}
	current, err := e.requireFees(st)
	if err != nil {
		return nil, err
	}
	if isZeroAddress(caller) || current.Authority != caller {
		return nil, errorsmod.Wrap(ErrUnauthorized, "only the fee authority can update fees")
	}
	if patch.MintFeeBps != nil {
		if err := validateBps("mint_fee_bps", *patch.MintFeeBps); err != nil {
			return nil, err
		}
		current.MintFeeBps = *patch.MintFeeBps
	}
	if patch.TransferFeeBps != nil {
		if err := validateBps("transfer_fee_bps", *patch.TransferFeeBps); err != nil {
			return nil, err
		}
		current.TransferFeeBps = *patch.TransferFeeBps
	}
	if patch.RedemptionFeeBps != nil {
		if err := validateBps("redemption_fee_bps", *patch.RedemptionFeeBps); err != nil {
			return nil, err
		}
		current.RedemptionFeeBps = *patch.RedemptionFeeBps
	}
	if patch.FeeCollector != nil {
		if isZeroAddress(*patch.FeeCollector) {
			return nil, errorsmod.Wrap(ErrOperationNotAllowed, "fee collector required")
		}
		current.FeeCollector = *patch.FeeCollector
	}
	if err := storeFees(st, current); err != nil {
		return nil, err
	}
	e.log().Info("rewards fees updated",
		"mint_fee_bps", current.MintFeeBps,
		"transfer_fee_bps", current.TransferFeeBps,
		"redemption_fee_bps", current.RedemptionFeeBps,
		"fee_collector", hexAddr(current.FeeCollector))
	e.emit(UpdateFeesEvent{
		MintFeeBps:       current.MintFeeBps,
		TransferFeeBps:   current.TransferFeeBps,
		RedemptionFeeBps: current.RedemptionFeeBps,
		FeeCollector:     current.FeeCollector,
	})
	return current, nil
}

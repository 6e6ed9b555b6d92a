package rewards

import (
	"errors"

	errorsmod "cosmossdk.io/errors"
)

// Codespace groups every rewards error code.
const Codespace = "rewards"

var (
	ErrUnauthorized               = errorsmod.Register(Codespace, 6000, "unauthorized")
	ErrOperationNotAllowed        = errorsmod.Register(Codespace, 6001, "operation not allowed")
	ErrInsufficientBalance        = errorsmod.Register(Codespace, 6002, "insufficient balance")
	ErrBpsOutOfRange              = errorsmod.Register(Codespace, 6003, "basis points out of range")
	ErrRecipientNotWhitelisted    = errorsmod.Register(Codespace, 6004, "recipient not whitelisted")
	ErrIsNotCurrentlyTransferring = errorsmod.Register(Codespace, 6005, "token is not currently transferring")
	ErrGlobalFrozen               = errorsmod.Register(Codespace, 6006, "all operations are frozen")
	ErrMintFrozen                 = errorsmod.Register(Codespace, 6007, "minting is frozen")
	ErrTransferFrozen             = errorsmod.Register(Codespace, 6008, "transfers are frozen")
	ErrBurnFrozen                 = errorsmod.Register(Codespace, 6009, "burning is frozen")
)

var (
	errNilState              = errors.New("rewards engine: state not configured")
	errRecordTooShort        = errors.New("rewards engine: record shorter than discriminator")
	errDiscriminatorMismatch = errors.New("rewards engine: record discriminator mismatch")
)

// Code returns the registered ABCI code for err, or zero when err does not
// belong to the rewards codespace.
func Code(err error) uint32 {
	var coded *errorsmod.Error
	if errors.As(err, &coded) && coded.Codespace() == Codespace {
		return coded.ABCICode()
	}
	return 0
}

// zeroAmount is returned for zero-valued mint, burn and transfer requests.
// Zero is refused as a policy choice; every positive amount is accepted.
func zeroAmount(op Operation) error {
	return errorsmod.Wrapf(ErrOperationNotAllowed, "zero %s amount rejected by policy: amount must be at least 1 base unit", op)
}

package state

import "errors"

var (
	ErrTokenNotFound         = errors.New("state: token not registered")
	ErrTokenExists           = errors.New("state: token already registered")
	ErrAccountNotFound       = errors.New("state: token account not found")
	ErrAccountExists         = errors.New("state: token account already exists")
	ErrMintMismatch          = errors.New("state: token account mint mismatch")
	ErrAuthorityMismatch     = errors.New("state: authority mismatch")
	ErrMintAuthorityDisabled = errors.New("state: mint authority disabled")
	ErrInsufficientBalance   = errors.New("state: insufficient balance")
	ErrDecimalsMismatch      = errors.New("state: decimals mismatch")
	ErrOverflow              = errors.New("state: amount overflow")
	ErrZeroAddress           = errors.New("state: address must not be zero")
)

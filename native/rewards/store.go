package rewards

import (
	"rwdledger/core/types"
)

// engineState captures the ledger capabilities the engine depends on. The
// reference implementation is *state.Manager.
type engineState interface {
	ParamStoreGet(name string) ([]byte, bool, error)
	ParamStoreSet(name string, value []byte) error
	RegisterToken(meta types.TokenMetadata) error
	Token(mint [20]byte) (*types.TokenMetadata, error)
	EnsureTokenAccount(address, mint, owner [20]byte) (*types.TokenAccount, error)
	TokenAccount(address [20]byte) (*types.TokenAccount, error)
	Balance(address [20]byte) (uint64, error)
	MintTo(mint, destination, authority [20]byte, amount uint64) error
	BurnFrom(mint, source, owner [20]byte, amount uint64) error
	TransferChecked(mint, source, destination, owner [20]byte, amount uint64, decimals uint8) error
}

func loadRecord(st engineState, key, name string, out interface{}) (bool, error) {
	raw, ok, err := st.ParamStoreGet(key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := decodeRecord(name, raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func storeRecord(st engineState, key, name string, value interface{}) error {
	encoded, err := encodeRecord(name, value)
	if err != nil {
		return err
	}
	return st.ParamStoreSet(key, encoded)
}

func loadFees(st engineState) (*FeeSchedule, bool, error) {
	fees := new(FeeSchedule)
	ok, err := loadRecord(st, paramKeyFees, recordFeeSchedule, fees)
	if err != nil || !ok {
		return nil, ok, err
	}
	return fees, true, nil
}

func storeFees(st engineState, fees *FeeSchedule) error {
	return storeRecord(st, paramKeyFees, recordFeeSchedule, fees)
}

func loadFreeze(st engineState) (*FreezeState, bool, error) {
	freeze := new(FreezeState)
	ok, err := loadRecord(st, paramKeyFreeze, recordFreezeState, freeze)
	if err != nil || !ok {
		return nil, ok, err
	}
	return freeze, true, nil
}

func storeFreeze(st engineState, freeze *FreezeState) error {
	return storeRecord(st, paramKeyFreeze, recordFreezeState, freeze)
}

func loadToken(st engineState) (*TokenConfig, bool, error) {
	cfg := new(TokenConfig)
	ok, err := loadRecord(st, paramKeyToken, recordTokenConfig, cfg)
	if err != nil || !ok {
		return nil, ok, err
	}
	return cfg, true, nil
}

func storeToken(st engineState, cfg *TokenConfig) error {
	return storeRecord(st, paramKeyToken, recordTokenConfig, cfg)
}

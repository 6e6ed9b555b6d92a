package rewards

import (
	"errors"

	errorsmod "cosmossdk.io/errors"

	"rwdledger/core/state"
	"rwdledger/core/types"
)

// InitializeToken registers the reward mint with its metadata, creates the
// reserve vault for the configured collateral mint and records the
// deployment. It can only run once.
func (e *Engine) InitializeToken(caller [20]byte, args TokenArgs) (*TokenConfig, error) {
	st, err := e.withState()
	if err != nil {
		return nil, err
	}
	if isZeroAddress(caller) {
		return nil, errorsmod.Wrap(ErrUnauthorized, "caller required")
	}
	if _, ok, err := loadToken(st); err != nil {
		return nil, err
	} else if ok {
		return nil, errorsmod.Wrap(ErrOperationNotAllowed, "token already initialized")
	}
	normalized, err := args.normalized()
	if err != nil {
		return nil, errorsmod.Wrap(ErrOperationNotAllowed, err.Error())
	}
	if e.params.Rate == 0 {
		return nil, errorsmod.Wrap(ErrOperationNotAllowed, "rate must be positive")
	}
	collateral, err := st.Token(e.params.CollateralMint)
	if errors.Is(err, state.ErrTokenNotFound) {
		return nil, errorsmod.Wrap(ErrOperationNotAllowed, "collateral mint not registered")
	}
	if err != nil {
		return nil, err
	}
	if collateral.Decimals != e.params.CollateralDecimals {
		return nil, errorsmod.Wrapf(ErrOperationNotAllowed, "collateral decimals %d, expected %d", collateral.Decimals, e.params.CollateralDecimals)
	}

	cfg := &TokenConfig{
		Mint:               e.params.MintAddress(),
		MintAuthority:      e.params.MintAuthority(),
		Vault:              e.params.VaultAddress(),
		VaultAuthority:     e.params.VaultAuthority(),
		CollateralMint:     e.params.CollateralMint,
		CollateralDecimals: e.params.CollateralDecimals,
		Rate:               e.params.Rate,
		Name:               normalized.Name,
		Symbol:             normalized.Symbol,
		URI:                normalized.URI,
		Decimals:           normalized.Decimals,
		Admin:              caller,
	}
	if err := st.RegisterToken(types.TokenMetadata{
		Mint:          cfg.Mint,
		Name:          cfg.Name,
		Symbol:        cfg.Symbol,
		URI:           cfg.URI,
		Decimals:      cfg.Decimals,
		MintAuthority: cfg.MintAuthority,
	}); err != nil {
		if errors.Is(err, state.ErrTokenExists) {
			return nil, errorsmod.Wrap(ErrOperationNotAllowed, "reward mint already registered")
		}
		return nil, err
	}
	if _, err := st.EnsureTokenAccount(cfg.Vault, cfg.CollateralMint, cfg.VaultAuthority); err != nil {
		return nil, err
	}
	if err := storeToken(st, cfg); err != nil {
		return nil, err
	}
	e.log().Info("rewards token initialized", "symbol", cfg.Symbol, "mint", hexAddr(cfg.Mint), "vault", hexAddr(cfg.Vault))
	e.emit(TokenInitializedEvent{Config: *cfg})
	return cfg, nil
}

package rewards

import (
	"encoding/hex"
	"errors"
	"log/slog"

	errorsmod "cosmossdk.io/errors"

	"rwdledger/core/events"
	"rwdledger/core/state"
)

// Engine implements reward token issuance, redemption and freeze control on
// top of a ledger state backend. It performs no locking; callers serialise
// access and provide atomicity.
type Engine struct {
	state   engineState
	emitter events.Emitter
	params  Params
	logger  *slog.Logger
}

// NewEngine constructs an engine with the supplied parameters and default
// dependencies.
func NewEngine(params Params) *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		params:  params,
		logger:  slog.Default(),
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetLogger overrides the structured logger.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		e.logger = slog.Default()
		return
	}
	e.logger = logger
}

// Params returns the engine configuration.
func (e *Engine) Params() Params { return e.params }

func (e *Engine) withState() (engineState, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state, nil
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) log() *slog.Logger {
	if e == nil || e.logger == nil {
		return slog.Default()
	}
	return e.logger
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

// mapLedgerErr surfaces ledger balance shortfalls as InsufficientBalance and
// returns every other failure unchanged.
func mapLedgerErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, state.ErrInsufficientBalance) {
		return errorsmod.Wrap(ErrInsufficientBalance, err.Error())
	}
	return err
}

func (e *Engine) requireToken(st engineState) (*TokenConfig, error) {
	cfg, ok, err := loadToken(st)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errorsmod.Wrap(ErrOperationNotAllowed, "token not initialized")
	}
	return cfg, nil
}

func (e *Engine) requireFees(st engineState) (*FeeSchedule, error) {
	fees, ok, err := loadFees(st)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errorsmod.Wrap(ErrOperationNotAllowed, "fees not initialized")
	}
	return fees, nil
}

func (e *Engine) requireFreeze(st engineState) (*FreezeState, error) {
	freeze, ok, err := loadFreeze(st)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errorsmod.Wrap(ErrOperationNotAllowed, "freeze state not initialized")
	}
	return freeze, nil
}

// TokenConfig returns the reward token deployment record.
func (e *Engine) TokenConfig() (*TokenConfig, error) {
	st, err := e.withState()
	if err != nil {
		return nil, err
	}
	return e.requireToken(st)
}

// Fees returns the current fee schedule.
func (e *Engine) Fees() (*FeeSchedule, error) {
	st, err := e.withState()
	if err != nil {
		return nil, err
	}
	return e.requireFees(st)
}

// FreezeState returns the freeze switch. Before initialisation the zero state
// (fully operational, no authority) is returned.
func (e *Engine) FreezeState() (*FreezeState, error) {
	st, err := e.withState()
	if err != nil {
		return nil, err
	}
	freeze, ok, err := loadFreeze(st)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &FreezeState{}, nil
	}
	return freeze, nil
}

// Vault reports the reserve vault address and collateral balance.
func (e *Engine) Vault() (*VaultInfo, error) {
	st, err := e.withState()
	if err != nil {
		return nil, err
	}
	cfg, err := e.requireToken(st)
	if err != nil {
		return nil, err
	}
	balance, err := st.Balance(cfg.Vault)
	if err != nil {
		return nil, err
	}
	return &VaultInfo{
		Address:   cfg.Vault,
		Authority: cfg.VaultAuthority,
		Mint:      cfg.CollateralMint,
		Balance:   balance,
	}, nil
}

// Account reports the reward and collateral balances held by owner.
func (e *Engine) Account(owner [20]byte) (*AccountView, error) {
	st, err := e.withState()
	if err != nil {
		return nil, err
	}
	cfg, err := e.requireToken(st)
	if err != nil {
		return nil, err
	}
	view := &AccountView{
		Owner:             owner,
		RewardAccount:     state.AssociatedAccount(owner, cfg.Mint),
		CollateralAccount: state.AssociatedAccount(owner, cfg.CollateralMint),
	}
	if view.RewardBalance, err = st.Balance(view.RewardAccount); err != nil {
		return nil, err
	}
	if view.CollateralBalance, err = st.Balance(view.CollateralAccount); err != nil {
		return nil, err
	}
	return view, nil
}

// Supply returns the outstanding reward token supply.
func (e *Engine) Supply() (uint64, error) {
	st, err := e.withState()
	if err != nil {
		return 0, err
	}
	cfg, err := e.requireToken(st)
	if err != nil {
		return 0, err
	}
	meta, err := st.Token(cfg.Mint)
	if err != nil {
		return 0, err
	}
	return meta.Supply, nil
}

package rewards

import (
	"strconv"

	"rwdledger/core/types"
	"rwdledger/crypto"
)

const (
	TypeTokenInitialized   = "rewards.token.initialized"
	TypeFeesInitialized    = "rewards.fees.initialized"
	TypeFeesUpdated        = "rewards.fees.updated"
	TypeFreezeInitialized  = "rewards.freeze.initialized"
	TypeFreezeStateChanged = "rewards.freeze.changed"
	TypeMint               = "rewards.mint"
	TypeBurn               = "rewards.burn"
	TypeTransfer           = "rewards.transfer"
)

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }

// MintEvent records a successful issuance.
type MintEvent struct {
	Minter       [20]byte
	Receiver     [20]byte
	AmountMinted uint64
	USDCSpent    uint64
	FeeAmount    uint64
	FeeCollector [20]byte
}

func (MintEvent) EventType() string { return TypeMint }

func (e MintEvent) Event() *types.Event {
	attrs := map[string]string{
		"minter":        crypto.Bech32(e.Minter),
		"receiver":      crypto.Bech32(e.Receiver),
		"amount_minted": formatUint(e.AmountMinted),
		"usdc_spent":    formatUint(e.USDCSpent),
		"fee_amount":    formatUint(e.FeeAmount),
	}
	if !isZeroAddress(e.FeeCollector) {
		attrs["fee_collector"] = crypto.Bech32(e.FeeCollector)
	}
	return &types.Event{Type: TypeMint, Attributes: attrs}
}

// BurnEvent records a successful redemption.
type BurnEvent struct {
	From         [20]byte
	AmountBurned uint64
	FeeAmount    uint64
	USDCAmount   uint64
	FeeCollector [20]byte
}

func (BurnEvent) EventType() string { return TypeBurn }

func (e BurnEvent) Event() *types.Event {
	return &types.Event{Type: TypeBurn, Attributes: map[string]string{
		"from_address":  crypto.Bech32(e.From),
		"amount_burned": formatUint(e.AmountBurned),
		"fee_amount":    formatUint(e.FeeAmount),
		"usdc_amount":   formatUint(e.USDCAmount),
		"fee_collector": crypto.Bech32(e.FeeCollector),
	}}
}

// TransferEvent records a fee-bearing transfer between holders.
type TransferEvent struct {
	Source      [20]byte
	Destination [20]byte
	FeeAmount   uint64
	Amount      uint64
}

func (TransferEvent) EventType() string { return TypeTransfer }

func (e TransferEvent) Event() *types.Event {
	return &types.Event{Type: TypeTransfer, Attributes: map[string]string{
		"source":      crypto.Bech32(e.Source),
		"destination": crypto.Bech32(e.Destination),
		"fee_amount":  formatUint(e.FeeAmount),
		"amount":      formatUint(e.Amount),
	}}
}

// UpdateFeesEvent carries the fee schedule after an update.
type UpdateFeesEvent struct {
	MintFeeBps       uint16
	TransferFeeBps   uint16
	RedemptionFeeBps uint16
	FeeCollector     [20]byte
}

func (UpdateFeesEvent) EventType() string { return TypeFeesUpdated }

func (e UpdateFeesEvent) Event() *types.Event {
	return &types.Event{Type: TypeFeesUpdated, Attributes: map[string]string{
		"mint_fee_bps":       formatUint(uint64(e.MintFeeBps)),
		"transfer_fee_bps":   formatUint(uint64(e.TransferFeeBps)),
		"redemption_fee_bps": formatUint(uint64(e.RedemptionFeeBps)),
		"fee_collector":      crypto.Bech32(e.FeeCollector),
	}}
}

// FreezeStateChangedEvent records a freeze toggle.
type FreezeStateChangedEvent struct {
	Authority [20]byte
	Target    FreezeTarget
	IsFrozen  bool
}

func (FreezeStateChangedEvent) EventType() string { return TypeFreezeStateChanged }

func (e FreezeStateChangedEvent) Event() *types.Event {
	return &types.Event{Type: TypeFreezeStateChanged, Attributes: map[string]string{
		"authority": crypto.Bech32(e.Authority),
		"target":    e.Target.String(),
		"is_frozen": strconv.FormatBool(e.IsFrozen),
	}}
}

type FreezeInitializedEvent struct {
	Authority [20]byte
}

func (FreezeInitializedEvent) EventType() string { return TypeFreezeInitialized }

func (e FreezeInitializedEvent) Event() *types.Event {
	return &types.Event{Type: TypeFreezeInitialized, Attributes: map[string]string{
		"authority": crypto.Bech32(e.Authority),
	}}
}

type FeesInitializedEvent struct {
	Schedule FeeSchedule
}

func (FeesInitializedEvent) EventType() string { return TypeFeesInitialized }

func (e FeesInitializedEvent) Event() *types.Event {
	return &types.Event{Type: TypeFeesInitialized, Attributes: map[string]string{
		"mint_fee_bps":       formatUint(uint64(e.Schedule.MintFeeBps)),
		"transfer_fee_bps":   formatUint(uint64(e.Schedule.TransferFeeBps)),
		"redemption_fee_bps": formatUint(uint64(e.Schedule.RedemptionFeeBps)),
		"fee_collector":      crypto.Bech32(e.Schedule.FeeCollector),
		"authority":          crypto.Bech32(e.Schedule.Authority),
	}}
}

type TokenInitializedEvent struct {
	Config TokenConfig
}

func (TokenInitializedEvent) EventType() string { return TypeTokenInitialized }

func (e TokenInitializedEvent) Event() *types.Event {
	attrs := map[string]string{
		"mint":            crypto.Bech32(e.Config.Mint),
		"vault":           crypto.Bech32(e.Config.Vault),
		"collateral_mint": crypto.Bech32(e.Config.CollateralMint),
		"name":            e.Config.Name,
		"symbol":          e.Config.Symbol,
		"decimals":        formatUint(uint64(e.Config.Decimals)),
		"rate":            formatUint(e.Config.Rate),
		"admin":           crypto.Bech32(e.Config.Admin),
	}
	if e.Config.URI != "" {
		attrs["uri"] = e.Config.URI
	}
	return &types.Event{Type: TypeTokenInitialized, Attributes: attrs}
}

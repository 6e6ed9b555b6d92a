package server

import (
	"fmt"
	"strconv"
	"strings"

	"rwdledger/crypto"
	"rwdledger/native/rewards"
)

// InitializeTokenRequest is the payload of POST /v1/token/initialize.
type InitializeTokenRequest struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	URI      string `json:"uri"`
	Decimals uint8  `json:"decimals"`
}

// InitializeFeesRequest is the payload of POST /v1/fees/initialize.
type InitializeFeesRequest struct {
	MintFeeBps       uint16 `json:"mintFeeBps"`
	TransferFeeBps   uint16 `json:"transferFeeBps"`
	RedemptionFeeBps uint16 `json:"redemptionFeeBps"`
	FeeCollector     string `json:"feeCollector"`
}

// UpdateFeesRequest is the payload of POST /v1/fees/update. Omitted fields
// are left unchanged.
type UpdateFeesRequest struct {
	MintFeeBps       *uint16 `json:"mintFeeBps,omitempty"`
	TransferFeeBps   *uint16 `json:"transferFeeBps,omitempty"`
	RedemptionFeeBps *uint16 `json:"redemptionFeeBps,omitempty"`
	FeeCollector     *string `json:"feeCollector,omitempty"`
}

// FreezeRequest is the payload of POST /v1/freeze and /v1/unfreeze. Target
// is one of "all", "mint" or "burn" and is required.
type FreezeRequest struct {
	Target string `json:"target"`
}

// AmountRequest is the payload of POST /v1/mint and /v1/burn.
type AmountRequest struct {
	Amount uint64 `json:"amount,string"`
}

// TransferRequest is the payload of POST /v1/transfer.
type TransferRequest struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount,string"`
}

func (r UpdateFeesRequest) patch() (rewards.FeePatch, error) {
	patch := rewards.FeePatch{
		MintFeeBps:       r.MintFeeBps,
		TransferFeeBps:   r.TransferFeeBps,
		RedemptionFeeBps: r.RedemptionFeeBps,
	}
	if r.FeeCollector != nil {
		collector, err := parseAddress("feeCollector", *r.FeeCollector)
		if err != nil {
			return rewards.FeePatch{}, err
		}
		patch.FeeCollector = &collector
	}
	return patch, nil
}

func parseAddress(field, value string) ([20]byte, error) {
	raw, err := crypto.ParseAddress(strings.TrimSpace(value))
	if err != nil {
		return [20]byte{}, fmt.Errorf("%s: %w", field, err)
	}
	return raw, nil
}

func bech32OrEmpty(addr [20]byte) string {
	if addr == ([20]byte{}) {
		return ""
	}
	return crypto.Bech32(addr)
}

// TokenResponse describes the reward token deployment.
type TokenResponse struct {
	Mint               string `json:"mint"`
	MintAuthority      string `json:"mintAuthority"`
	Vault              string `json:"vault"`
	VaultAuthority     string `json:"vaultAuthority"`
	CollateralMint     string `json:"collateralMint"`
	CollateralDecimals uint8  `json:"collateralDecimals"`
	Rate               uint64 `json:"rate"`
	Name               string `json:"name"`
	Symbol             string `json:"symbol"`
	URI                string `json:"uri"`
	Decimals           uint8  `json:"decimals"`
	Admin              string `json:"admin"`
	Supply             string `json:"supply"`
}

func newTokenResponse(cfg *rewards.TokenConfig, supply uint64) TokenResponse {
	return TokenResponse{
		Mint:               bech32OrEmpty(cfg.Mint),
		MintAuthority:      bech32OrEmpty(cfg.MintAuthority),
		Vault:              bech32OrEmpty(cfg.Vault),
		VaultAuthority:     bech32OrEmpty(cfg.VaultAuthority),
		CollateralMint:     bech32OrEmpty(cfg.CollateralMint),
		CollateralDecimals: cfg.CollateralDecimals,
		Rate:               cfg.Rate,
		Name:               cfg.Name,
		Symbol:             cfg.Symbol,
		URI:                cfg.URI,
		Decimals:           cfg.Decimals,
		Admin:              bech32OrEmpty(cfg.Admin),
		Supply:             strconv.FormatUint(supply, 10),
	}
}

// FeesResponse describes the fee schedule.
type FeesResponse struct {
	MintFeeBps       uint16 `json:"mintFeeBps"`
	TransferFeeBps   uint16 `json:"transferFeeBps"`
	RedemptionFeeBps uint16 `json:"redemptionFeeBps"`
	FeeCollector     string `json:"feeCollector"`
	Authority        string `json:"authority"`
}

func newFeesResponse(s *rewards.FeeSchedule) FeesResponse {
	return FeesResponse{
		MintFeeBps:       s.MintFeeBps,
		TransferFeeBps:   s.TransferFeeBps,
		RedemptionFeeBps: s.RedemptionFeeBps,
		FeeCollector:     bech32OrEmpty(s.FeeCollector),
		Authority:        bech32OrEmpty(s.Authority),
	}
}

// FreezeResponse describes the freeze switch.
type FreezeResponse struct {
	Authority  string `json:"authority"`
	IsFrozen   bool   `json:"isFrozen"`
	FreezeMint bool   `json:"freezeMint"`
	FreezeBurn bool   `json:"freezeBurn"`
}

func newFreezeResponse(f *rewards.FreezeState) FreezeResponse {
	return FreezeResponse{
		Authority:  bech32OrEmpty(f.Authority),
		IsFrozen:   f.IsFrozen,
		FreezeMint: f.FreezeMint,
		FreezeBurn: f.FreezeBurn,
	}
}

// VaultResponse describes the reserve vault.
type VaultResponse struct {
	Address   string `json:"address"`
	Authority string `json:"authority"`
	Mint      string `json:"mint"`
	Balance   string `json:"balance"`
}

// AccountResponse reports the balances of an owner.
type AccountResponse struct {
	Owner             string `json:"owner"`
	RewardAccount     string `json:"rewardAccount"`
	RewardBalance     string `json:"rewardBalance"`
	CollateralAccount string `json:"collateralAccount"`
	CollateralBalance string `json:"collateralBalance"`
}

// EventResponse is the rendered form of the event produced by a write.
type EventResponse struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

package rewards

import (
	"fmt"
	"strings"
)

// FreezeTarget selects which flags a freeze toggle affects.
type FreezeTarget uint8

const (
	FreezeAll FreezeTarget = iota
	FreezeMint
	FreezeBurn
)

func (t FreezeTarget) String() string {
	switch t {
	case FreezeAll:
		return "all"
	case FreezeMint:
		return "mint"
	case FreezeBurn:
		return "burn"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Valid reports whether t is a known target.
func (t FreezeTarget) Valid() bool { return t <= FreezeBurn }

// ParseFreezeTarget decodes the canonical name of a target. The target must be
// named explicitly; an empty value is an error.
func ParseFreezeTarget(value string) (FreezeTarget, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return 0, fmt.Errorf("freeze target required (all, mint or burn)")
	case "all":
		return FreezeAll, nil
	case "mint":
		return FreezeMint, nil
	case "burn":
		return FreezeBurn, nil
	default:
		return 0, fmt.Errorf("unknown freeze target %q", value)
	}
}

// Operation identifies a value-moving operation subject to freeze checks.
type Operation uint8

const (
	OperationMint Operation = iota
	OperationBurn
	OperationTransfer
)

func (o Operation) String() string {
	switch o {
	case OperationMint:
		return "mint"
	case OperationBurn:
		return "burn"
	case OperationTransfer:
		return "transfer"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(o))
	}
}

// FeeSchedule holds the fee rates applied to each operation and where fees
// are paid.
type FeeSchedule struct {
	MintFeeBps       uint16
	TransferFeeBps   uint16
	RedemptionFeeBps uint16
	FeeCollector     [20]byte
	Authority        [20]byte
}

// FeePatch carries a partial fee update; nil fields are left unchanged.
type FeePatch struct {
	MintFeeBps       *uint16
	TransferFeeBps   *uint16
	RedemptionFeeBps *uint16
	FeeCollector     *[20]byte
}

// Empty reports whether the patch changes nothing.
func (p FeePatch) Empty() bool {
	return p.MintFeeBps == nil && p.TransferFeeBps == nil && p.RedemptionFeeBps == nil && p.FeeCollector == nil
}

// FreezeState is the tri-flag freeze switch.
type FreezeState struct {
	Authority  [20]byte
	IsFrozen   bool
	FreezeMint bool
	FreezeBurn bool
}

const (
	maxNameLength   = 32
	maxSymbolLength = 10
	maxURILength    = 200
)

// TokenArgs describes the reward token metadata supplied at initialisation.
type TokenArgs struct {
	Name     string
	Symbol   string
	URI      string
	Decimals uint8
}

func (a TokenArgs) normalized() (TokenArgs, error) {
	out := TokenArgs{
		Name:     strings.TrimSpace(a.Name),
		Symbol:   strings.TrimSpace(a.Symbol),
		URI:      strings.TrimSpace(a.URI),
		Decimals: a.Decimals,
	}
	if out.Name == "" || len(out.Name) > maxNameLength {
		return TokenArgs{}, fmt.Errorf("name must be 1-%d bytes", maxNameLength)
	}
	if out.Symbol == "" || len(out.Symbol) > maxSymbolLength {
		return TokenArgs{}, fmt.Errorf("symbol must be 1-%d bytes", maxSymbolLength)
	}
	if len(out.URI) > maxURILength {
		return TokenArgs{}, fmt.Errorf("uri must be at most %d bytes", maxURILength)
	}
	return out, nil
}

// TokenConfig records the reward token deployment.
type TokenConfig struct {
	Mint               [20]byte
	MintAuthority      [20]byte
	Vault              [20]byte
	VaultAuthority     [20]byte
	CollateralMint     [20]byte
	CollateralDecimals uint8
	Rate               uint64
	Name               string
	Symbol             string
	URI                string
	Decimals           uint8
	Admin              [20]byte
}

// CollateralFor converts a reward amount into collateral base units at the
// deployment rate, rounding toward zero.
func (c *TokenConfig) CollateralFor(amount uint64) uint64 {
	if c.Rate == 0 {
		return 0
	}
	return amount / c.Rate
}

// VaultInfo summarises the reserve vault.
type VaultInfo struct {
	Address   [20]byte
	Authority [20]byte
	Mint      [20]byte
	Balance   uint64
}

// AccountView reports the reward and collateral holdings of an owner.
type AccountView struct {
	Owner             [20]byte
	RewardAccount     [20]byte
	RewardBalance     uint64
	CollateralAccount [20]byte
	CollateralBalance uint64
}

package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"rwdledger/core/state"
)

// CollateralProgram namespaces collateral mints derived from their symbol.
var CollateralProgram = [20]byte{'r', 'w', 'd', '-', 'c', 'o', 'l', 'l', 'a', 't', 'e', 'r', 'a', 'l', '-', 'm', 'i', 'n', 't', 's'}

// GenesisSpec seeds a fresh ledger with the collateral token, prefunded
// collateral balances and, optionally, an initialised rewards deployment.
type GenesisSpec struct {
	Collateral CollateralSpec    `json:"collateral" yaml:"collateral"`
	Alloc      map[string]string `json:"alloc" yaml:"alloc"` // addr -> collateral base units
	Rewards    *RewardsSpec      `json:"rewards,omitempty" yaml:"rewards,omitempty"`

	collateralMint      [20]byte
	collateralAuthority [20]byte
	allocations         []Allocation
}

// CollateralSpec describes the reserve stablecoin.
type CollateralSpec struct {
	Symbol        string `json:"symbol" yaml:"symbol"`
	Name          string `json:"name" yaml:"name"`
	Decimals      uint8  `json:"decimals" yaml:"decimals"`
	Mint          string `json:"mint,omitempty" yaml:"mint,omitempty"`
	MintAuthority string `json:"mintAuthority" yaml:"mintAuthority"`
}

// RewardsSpec pre-initialises the rewards token, freeze switch and fees on
// behalf of Admin.
type RewardsSpec struct {
	Admin            string `json:"admin" yaml:"admin"`
	Name             string `json:"name" yaml:"name"`
	Symbol           string `json:"symbol" yaml:"symbol"`
	URI              string `json:"uri,omitempty" yaml:"uri,omitempty"`
	Decimals         uint8  `json:"decimals" yaml:"decimals"`
	MintFeeBps       uint16 `json:"mintFeeBps" yaml:"mintFeeBps"`
	TransferFeeBps   uint16 `json:"transferFeeBps" yaml:"transferFeeBps"`
	RedemptionFeeBps uint16 `json:"redemptionFeeBps" yaml:"redemptionFeeBps"`
	FeeCollector     string `json:"feeCollector" yaml:"feeCollector"`

	admin        [20]byte
	feeCollector [20]byte
}

// Allocation is a validated prefunded collateral balance.
type Allocation struct {
	Owner  [20]byte
	Amount uint64
}

// LoadGenesisSpec reads a genesis file. Files ending in .yaml or .yml are
// decoded as YAML, everything else as JSON.
func LoadGenesisSpec(path string) (*GenesisSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis: %w", err)
	}
	spec := new(GenesisSpec)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, spec); err != nil {
			return nil, fmt.Errorf("decode genesis yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(raw, spec); err != nil {
			return nil, fmt.Errorf("decode genesis json: %w", err)
		}
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// Validate normalises the spec and resolves every address.
func (s *GenesisSpec) Validate() error {
	if s == nil {
		return fmt.Errorf("genesis spec must not be nil")
	}
	symbol := strings.ToUpper(strings.TrimSpace(s.Collateral.Symbol))
	if symbol == "" {
		return fmt.Errorf("genesis: collateral symbol required")
	}
	s.Collateral.Symbol = symbol
	if strings.TrimSpace(s.Collateral.Name) == "" {
		s.Collateral.Name = symbol
	}
	if strings.TrimSpace(s.Collateral.Mint) != "" {
		mint, err := ParseBech32Account(s.Collateral.Mint)
		if err != nil {
			return fmt.Errorf("genesis: collateral mint: %w", err)
		}
		s.collateralMint = mint
	} else {
		s.collateralMint = state.DeriveAddress(CollateralProgram, []byte(symbol))
	}
	authority, err := ParseBech32Account(s.Collateral.MintAuthority)
	if err != nil {
		return fmt.Errorf("genesis: collateral mint authority: %w", err)
	}
	s.collateralAuthority = authority

	allocations := make([]Allocation, 0, len(s.Alloc))
	for owner, amount := range s.Alloc {
		addr, err := ParseBech32Account(owner)
		if err != nil {
			return fmt.Errorf("genesis: alloc %s: %w", owner, err)
		}
		value, err := strconv.ParseUint(strings.TrimSpace(amount), 10, 64)
		if err != nil {
			return fmt.Errorf("genesis: alloc %s amount %q: %w", owner, amount, err)
		}
		allocations = append(allocations, Allocation{Owner: addr, Amount: value})
	}
	sort.Slice(allocations, func(i, j int) bool {
		return string(allocations[i].Owner[:]) < string(allocations[j].Owner[:])
	})
	s.allocations = allocations

	if s.Rewards != nil {
		admin, err := ParseBech32Account(s.Rewards.Admin)
		if err != nil {
			return fmt.Errorf("genesis: rewards admin: %w", err)
		}
		collector, err := ParseBech32Account(s.Rewards.FeeCollector)
		if err != nil {
			return fmt.Errorf("genesis: rewards fee collector: %w", err)
		}
		s.Rewards.admin = admin
		s.Rewards.feeCollector = collector
	}
	return nil
}

// CollateralMint returns the resolved collateral mint address.
func (s *GenesisSpec) CollateralMint() [20]byte { return s.collateralMint }

// CollateralAuthority returns the resolved collateral mint authority.
func (s *GenesisSpec) CollateralAuthority() [20]byte { return s.collateralAuthority }

// Allocations returns the prefunded balances ordered by owner.
func (s *GenesisSpec) Allocations() []Allocation {
	return append([]Allocation(nil), s.allocations...)
}

// AdminAddress returns the resolved rewards admin.
func (r *RewardsSpec) AdminAddress() [20]byte { return r.admin }

// FeeCollectorAddress returns the resolved fee collector.
func (r *RewardsSpec) FeeCollectorAddress() [20]byte { return r.feeCollector }

package genesis

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"rwdledger/core/state"
	"rwdledger/crypto"
	"rwdledger/storage"
)

func bech(b byte) string {
	return crypto.MustNewAddress(crypto.RWDPrefix, bytes.Repeat([]byte{b}, 20)).String()
}

func raw(b byte) [20]byte {
	var out [20]byte
	copy(out[:], bytes.Repeat([]byte{b}, 20))
	return out
}

func TestLoadGenesisSpecJSONAndApply(t *testing.T) {
	spec := GenesisSpec{
		Collateral: CollateralSpec{Symbol: "usdc", Name: "USD Coin", Decimals: 6, MintAuthority: bech(0x09)},
		Alloc: map[string]string{
			bech(0x02): "2000",
			bech(0x01): "1000",
		},
	}
	encoded, err := json.Marshal(spec)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, os.WriteFile(path, encoded, 0o600))

	loaded, err := LoadGenesisSpec(path)
	require.NoError(t, err)
	require.Equal(t, "USDC", loaded.Collateral.Symbol)
	require.Equal(t, state.DeriveAddress(CollateralProgram, []byte("USDC")), loaded.CollateralMint())

	allocs := loaded.Allocations()
	require.Len(t, allocs, 2)
	require.Equal(t, raw(0x01), allocs[0].Owner)

	manager := state.NewManager(storage.NewMemDB())
	require.NoError(t, Apply(loaded, manager))

	balance, err := manager.Balance(state.AssociatedAccount(raw(0x02), loaded.CollateralMint()))
	require.NoError(t, err)
	require.Equal(t, uint64(2000), balance)

	meta, err := manager.Token(loaded.CollateralMint())
	require.NoError(t, err)
	require.Equal(t, uint64(3000), meta.Supply)

	require.ErrorIs(t, Apply(loaded, manager), ErrAlreadyApplied)
}

func TestLoadGenesisSpecYAML(t *testing.T) {
	doc := "collateral:\n" +
		"  symbol: USDC\n" +
		"  decimals: 6\n" +
		"  mintAuthority: " + bech(0x09) + "\n" +
		"alloc:\n" +
		"  " + bech(0x01) + ": \"500\"\n" +
		"rewards:\n" +
		"  admin: " + bech(0x0A) + "\n" +
		"  name: Reward\n" +
		"  symbol: RWD\n" +
		"  decimals: 6\n" +
		"  mintFeeBps: 500\n" +
		"  feeCollector: " + bech(0x0F) + "\n"
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	spec, err := LoadGenesisSpec(path)
	require.NoError(t, err)
	require.Equal(t, "USDC", spec.Collateral.Name)
	require.NotNil(t, spec.Rewards)
	require.Equal(t, raw(0x0A), spec.Rewards.AdminAddress())
	require.Equal(t, raw(0x0F), spec.Rewards.FeeCollectorAddress())
	require.Equal(t, uint16(500), spec.Rewards.MintFeeBps)
}

func TestValidateRejectsBadInput(t *testing.T) {
	require.Error(t, (&GenesisSpec{}).Validate())

	bad := &GenesisSpec{
		Collateral: CollateralSpec{Symbol: "USDC", MintAuthority: bech(0x09)},
		Alloc:      map[string]string{bech(0x01): "-5"},
	}
	require.Error(t, bad.Validate())

	foreign := &GenesisSpec{
		Collateral: CollateralSpec{Symbol: "USDC", MintAuthority: crypto.MustNewAddress("cosmos", bytes.Repeat([]byte{1}, 20)).String()},
	}
	require.Error(t, foreign.Validate())
}

package fees

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyComputesFeeAndNet(t *testing.T) {
	cases := []struct {
		name  string
		gross uint64
		bps   uint16
		fee   uint64
	}{
		{name: "five percent", gross: 1_000, bps: 500, fee: 50},
		{name: "two percent", gross: 1_000, bps: 200, fee: 20},
		{name: "rounds down", gross: 99, bps: 100, fee: 0},
		{name: "zero rate", gross: 1_000, bps: 0, fee: 0},
		{name: "full rate", gross: 1_000, bps: 10_000, fee: 1_000},
		{name: "zero gross", gross: 0, bps: 500, fee: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Apply(tc.gross, tc.bps)
			require.Equal(t, tc.fee, result.Fee)
			require.Equal(t, tc.gross, result.Fee+result.Net)
		})
	}
}

func TestApplyDoesNotOverflowOnLargeGross(t *testing.T) {
	gross := uint64(math.MaxUint64)
	result := Apply(gross, 500)
	// (2^64-1) * 500 / 10000 computed without wrap-around
	require.Equal(t, uint64(922337203685477580), result.Fee)
	require.Equal(t, gross, result.Fee+result.Net)
}

func TestApplyClampsAboveFullRate(t *testing.T) {
	result := Apply(100, math.MaxUint16)
	require.Equal(t, uint64(100), result.Fee)
	require.Zero(t, result.Net)
}

func TestValidateBps(t *testing.T) {
	require.NoError(t, ValidateBps("mint_fee_bps", 0))
	require.NoError(t, ValidateBps("mint_fee_bps", 10_000))
	require.Error(t, ValidateBps("mint_fee_bps", 10_001))
}

package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"rwdledger/native/rewards"
)

func TestObserveOperationOutcomes(t *testing.T) {
	m := NewRewardsMetrics(prometheus.NewRegistry())
	m.ObserveOperation("mint", time.Millisecond, nil)
	m.ObserveOperation("mint", time.Millisecond, errors.New("boom"))
	m.ObserveOperation("", time.Millisecond, nil)

	require.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("mint", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("mint", "error")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("unknown", "success")))
}

func TestEventMetricsCountsFees(t *testing.T) {
	m := NewRewardsMetrics(prometheus.NewRegistry())
	emitter := NewEventMetrics(m)
	emitter.Emit(rewards.MintEvent{FeeAmount: 50})
	emitter.Emit(rewards.BurnEvent{FeeAmount: 20})
	emitter.Emit(rewards.MintEvent{FeeAmount: 0})

	require.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues(rewards.TypeMint)))
	require.Equal(t, 50.0, testutil.ToFloat64(m.feesTotal.WithLabelValues("mint")))
	require.Equal(t, 20.0, testutil.ToFloat64(m.feesTotal.WithLabelValues("burn")))
}

func TestGauges(t *testing.T) {
	m := NewRewardsMetrics(prometheus.NewRegistry())
	m.SetSupply(1_000)
	m.SetVaultBalance(100)
	m.SetFreeze(false, true, false)

	require.Equal(t, 1_000.0, testutil.ToFloat64(m.supply))
	require.Equal(t, 100.0, testutil.ToFloat64(m.vault))
	require.Equal(t, 1.0, testutil.ToFloat64(m.frozen.WithLabelValues("mint")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.frozen.WithLabelValues("global")))

	var nilMetrics *RewardsMetrics
	nilMetrics.SetSupply(1)
	nilMetrics.ObserveRequest("/v1/mint", 200)
}

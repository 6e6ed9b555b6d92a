package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseHeaders(t *testing.T) {
	headers := ParseHeaders(" authorization=Bearer abc , x-team=rewards,broken, =skip")
	require.Equal(t, map[string]string{
		"authorization": "Bearer abc",
		"x-team":        "rewards",
	}, headers)
}

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "rewardsd"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	_, err = Init(context.Background(), Config{})
	require.Error(t, err)
}

func TestTracerAvailableBeforeInit(t *testing.T) {
	_, span := Tracer().Start(context.Background(), "noop")
	span.End()
}

func TestShutdownChainRunsInReverseAndJoinsErrors(t *testing.T) {
	var order []int
	boom := errors.New("boom")
	chain := shutdownChain{
		func(context.Context) error { order = append(order, 1); return nil },
		func(context.Context) error { order = append(order, 2); return boom },
	}
	err := chain.shutdown(context.Background())
	require.ErrorIs(t, err, boom)
	require.Equal(t, []int{2, 1}, order)
}

func TestSamplerBounds(t *testing.T) {
	require.Contains(t, sampler(0).Description(), "AlwaysOnSampler")
	require.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}

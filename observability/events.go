package observability

import (
	"rwdledger/core/events"
	"rwdledger/native/rewards"
)

// EventMetrics is an emitter that folds committed rewards events into
// Prometheus metrics.
type EventMetrics struct {
	metrics *RewardsMetrics
}

// NewEventMetrics wraps m. A nil m falls back to the default registry.
func NewEventMetrics(m *RewardsMetrics) *EventMetrics {
	if m == nil {
		m = Rewards()
	}
	return &EventMetrics{metrics: m}
}

// Emit implements events.Emitter.
func (e *EventMetrics) Emit(evt events.Event) {
	if e == nil || evt == nil {
		return
	}
	e.metrics.RecordEvent(evt.EventType())
	switch typed := evt.(type) {
	case rewards.MintEvent:
		e.metrics.RecordFee("mint", typed.FeeAmount)
	case rewards.BurnEvent:
		e.metrics.RecordFee("burn", typed.FeeAmount)
	case rewards.TransferEvent:
		e.metrics.RecordFee("transfer", typed.FeeAmount)
	}
}

package events

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rwdledger/core/types"
)

type plainEvent struct{ kind string }

func (e plainEvent) EventType() string { return e.kind }

type renderedEvent struct{ value string }

func (renderedEvent) EventType() string { return "test.rendered" }

func (e renderedEvent) Event() *types.Event {
	return &types.Event{Type: "test.rendered", Attributes: map[string]string{"value": e.value}}
}

type recorder struct{ seen []Event }

func (r *recorder) Emit(evt Event) { r.seen = append(r.seen, evt) }

func TestBufferFlushPreservesOrder(t *testing.T) {
	buf := NewBuffer()
	buf.Emit(plainEvent{kind: "a"})
	buf.Emit(nil)
	buf.Emit(plainEvent{kind: "b"})
	require.Len(t, buf.Events(), 2)

	rec := &recorder{}
	flushed := buf.Flush(rec)
	require.Len(t, flushed, 2)
	require.Equal(t, "a", rec.seen[0].EventType())
	require.Equal(t, "b", rec.seen[1].EventType())
	require.Empty(t, buf.Events())
}

func TestBufferResetDropsEvents(t *testing.T) {
	buf := NewBuffer()
	buf.Emit(plainEvent{kind: "a"})
	buf.Reset()
	rec := &recorder{}
	buf.Flush(rec)
	require.Empty(t, rec.seen)
}

func TestRenderFallsBackToType(t *testing.T) {
	rendered := Render(plainEvent{kind: "plain"})
	require.Equal(t, "plain", rendered.Type)
	require.Empty(t, rendered.Attributes)

	rendered = Render(renderedEvent{value: "x"})
	require.Equal(t, "x", rendered.Attributes["value"])
	require.Nil(t, Render(nil))
}

func TestFeedDeliversAndCancels(t *testing.T) {
	feed := NewFeed()
	ch, cancel := feed.Subscribe(1)
	require.Equal(t, 1, feed.Subscribers())

	feed.Emit(renderedEvent{value: "first"})
	// channel full, dropped
	feed.Emit(renderedEvent{value: "second"})

	got := <-ch
	require.Equal(t, "first", got.Attributes["value"])

	cancel()
	cancel()
	require.Equal(t, 0, feed.Subscribers())
	_, open := <-ch
	require.False(t, open)
}

func TestMultiSkipsNil(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Multi{a, nil, b}.Emit(plainEvent{kind: "x"})
	require.Len(t, a.seen, 1)
	require.Len(t, b.seen, 1)
}

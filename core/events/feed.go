package events

import (
	"sync"

	"rwdledger/core/types"
)

// Feed renders emitted events and delivers them to live subscribers. Slow
// subscribers miss events rather than blocking the emitter.
type Feed struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]chan *types.Event
}

// NewFeed constructs an empty feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[uint64]chan *types.Event)}
}

// Subscribe registers a subscriber with the given channel capacity. The
// returned cancel function closes the channel and is safe to call twice.
func (f *Feed) Subscribe(capacity int) (<-chan *types.Event, func()) {
	if capacity <= 0 {
		capacity = 16
	}
	ch := make(chan *types.Event, capacity)
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = ch
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers reports the number of active subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// Emit implements the Emitter interface.
func (f *Feed) Emit(evt Event) {
	rendered := Render(evt)
	if rendered == nil {
		return
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, ch := range f.subs {
		select {
		case ch <- rendered:
		default:
		}
	}
}

package events

import (
	"sync"

	"potlottery/core/types"
)

const defaultSubscriberBuffer = 64

// Bus fans emitted events out to subscribers. Emitters never block: a
// subscriber whose buffer is full misses the event and its drop counter grows.
//
// Events emitted while a state transition is still in flight can be held back
// with Hold and released with Flush or discarded with Discard, so that
// subscribers only observe committed transitions.
type Bus struct {
	mu      sync.Mutex
	nextID  uint64
	subs    map[uint64]*subscription
	held    []*types.Event
	holding bool
}

type subscription struct {
	ch      chan *types.Event
	dropped uint64
}

// NewBus constructs an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]*subscription)}
}

// Emit implements Emitter.
func (b *Bus) Emit(evt Event) {
	if b == nil || evt == nil {
		return
	}
	rendered := Render(evt)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.holding {
		b.held = append(b.held, rendered)
		return
	}
	b.publishLocked(rendered)
}

// Hold starts buffering emitted events until Flush or Discard is called.
func (b *Bus) Hold() {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.holding = true
	b.mu.Unlock()
}

// Flush publishes every held event in emission order and stops holding.
func (b *Bus) Flush() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	held := b.held
	b.held = nil
	b.holding = false
	for _, evt := range held {
		b.publishLocked(evt)
	}
}

// Discard drops every held event and stops holding.
func (b *Bus) Discard() {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.held = nil
	b.holding = false
	b.mu.Unlock()
}

func (b *Bus) publishLocked(evt *types.Event) {
	for _, sub := range b.subs {
		select {
		case sub.ch <- evt:
		default:
			sub.dropped++
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel function closes
// the channel and must be called once the subscriber is done.
func (b *Bus) Subscribe(buffer int) (<-chan *types.Event, func()) {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	sub := &subscription{ch: make(chan *types.Event, buffer)}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Dropped reports the total number of events dropped across live subscribers.
func (b *Bus) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	var total uint64
	for _, sub := range b.subs {
		total += sub.dropped
	}
	return total
}

package events

import (
	"context"
	"sync"

	"gtonstaking/core/types"
)

// subscriberBuffer bounds how far a slow websocket reader may lag before it
// starts missing events rather than blocking pool mutators.
const subscriberBuffer = 64

// BroadcastEmitter fans pool events out to any number of live subscribers.
// It is the events-domain analogue of the finality subscription stream: pool
// mutators call Emit synchronously while holding no lock the subscriber can
// stall, and each subscriber drains its own buffered channel independently.
type BroadcastEmitter struct {
	mu          sync.Mutex
	subscribers map[int]chan *types.Event
	nextID      int
}

// NewBroadcastEmitter constructs an emitter with no subscribers.
func NewBroadcastEmitter() *BroadcastEmitter {
	return &BroadcastEmitter{subscribers: make(map[int]chan *types.Event)}
}

// Emit implements Emitter. A subscriber whose buffer is full misses the
// event rather than blocking the caller.
func (b *BroadcastEmitter) Emit(e Event) {
	if b == nil || e == nil {
		return
	}
	payload := e.Event()
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- payload:
		default:
		}
	}
}

// Subscribe registers a new listener and returns a channel of events plus a
// cancel function that must be called to release it. The channel is closed
// once cancel runs or ctx is done.
func (b *BroadcastEmitter) Subscribe(ctx context.Context) (<-chan *types.Event, func()) {
	ch := make(chan *types.Event, subscriberBuffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel
}

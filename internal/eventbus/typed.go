// Package eventbus fans inbound events out to any number of subscribers.
package eventbus

import "sync"

// DefaultBuffer is the channel capacity of a subscription.
const DefaultBuffer = 16

type subscription[T any] struct {
	ch     chan T
	filter func(T) bool
}

// TypedBus is a type-safe publish/subscribe bus for events of type T.
type TypedBus[T any] struct {
	mu     sync.RWMutex
	subs   []subscription[T]
	closed bool
	onDrop func(T)
}

// NewTyped creates a new TypedBus.
func NewTyped[T any]() *TypedBus[T] { return &TypedBus[T]{} }

// OnDrop installs a callback invoked when a slow subscriber misses an event.
func (b *TypedBus[T]) OnDrop(f func(T)) {
	b.mu.Lock()
	b.onDrop = f
	b.mu.Unlock()
}

// Publish sends the event to all matching subscribers. Delivery is
// non-blocking: a full subscriber misses the event.
func (b *TypedBus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, s := range b.subs {
		if s.filter != nil && !s.filter(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			if b.onDrop != nil {
				b.onDrop(e)
			}
		}
	}
}

// Subscribe registers a subscriber receiving every event.
func (b *TypedBus[T]) Subscribe() <-chan T {
	return b.SubscribeFunc(nil, DefaultBuffer)
}

// SubscribeFunc registers a subscriber receiving the events accepted by
// filter, buffered up to size events. A nil filter accepts everything.
func (b *TypedBus[T]) SubscribeFunc(filter func(T) bool, size int) <-chan T {
	if size <= 0 {
		size = 1
	}
	ch := make(chan T, size)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, subscription[T]{ch: ch, filter: filter})
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *TypedBus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(s.ch)
			}
			return
		}
	}
}

// Len returns the number of active subscribers.
func (b *TypedBus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes the bus and all subscriber channels.
func (b *TypedBus[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
	b.mu.Unlock()
}

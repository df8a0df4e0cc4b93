package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/farmbot/core/broker"
	"github.com/kilianp07/farmbot/internal/eventbus"
)

type waiter struct {
	bus     *eventbus.TypedBus[broker.Message]
	channel string
	ch      <-chan broker.Message
	once    sync.Once
}

func newWaiter(bus *eventbus.TypedBus[broker.Message], channel string) *waiter {
	ch := bus.SubscribeFunc(func(m broker.Message) bool { return m.Channel == channel }, 1)
	return &waiter{bus: bus, channel: channel, ch: ch}
}

// Wait returns the first message of the channel received since Listen.
func (w *waiter) Wait(ctx context.Context, timeout time.Duration) (broker.Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case m, ok := <-w.ch:
		if !ok {
			return broker.Message{}, broker.ErrNotConnected
		}
		return m, nil
	case <-timer.C:
		return broker.Message{}, fmt.Errorf("%s after %s: %w", w.channel, timeout, broker.ErrResponseTimeout)
	case <-ctx.Done():
		return broker.Message{}, ctx.Err()
	}
}

func (w *waiter) Close() {
	w.once.Do(func() { w.bus.Unsubscribe(w.ch) })
}

package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/farmbot/core/broker"
	coremetrics "github.com/kilianp07/farmbot/core/metrics"
	"github.com/kilianp07/farmbot/internal/eventbus"
)

type busStream struct{ bus *eventbus.TypedBus[broker.Message] }

func (b busStream) Messages() <-chan broker.Message      { return b.bus.Subscribe() }
func (b busStream) Unsubscribe(ch <-chan broker.Message) { b.bus.Unsubscribe(ch) }

type messageSink struct {
	coremetrics.NopSink
	mu     sync.Mutex
	events []coremetrics.MessageEvent
}

func (m *messageSink) RecordMessage(ev coremetrics.MessageEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *messageSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func TestStartMessageCollector(t *testing.T) {
	bus := eventbus.NewTyped[broker.Message]()
	stream := busStream{bus: bus}
	sink := &messageSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	StartMessageCollector(ctx, stream, sink)
	assert.Eventually(t, func() bool { return bus.Len() == 1 }, time.Second, 5*time.Millisecond)

	bus.Publish(broker.Message{Channel: "status", Payload: []byte(`{}`)})
	bus.Publish(broker.Message{Channel: "logs", Payload: []byte(`{"message":"x"}`)})
	assert.Eventually(t, func() bool { return sink.count() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.Eventually(t, func() bool { return bus.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestStartMessageCollectorSkipsPlainSink(t *testing.T) {
	bus := eventbus.NewTyped[broker.Message]()
	StartMessageCollector(context.Background(), busStream{bus: bus}, coremetrics.NopSink{})
	assert.Equal(t, 0, bus.Len())
}

package mqtt

import (
	"context"
	"sync"
	"time"

	"github.com/kilianp07/farmbot/core/broker"
	"github.com/kilianp07/farmbot/core/frame"
	"github.com/kilianp07/farmbot/internal/eventbus"
)

// MockBroker is an in-memory broker.Broker used in tests. It records every
// envelope and lets the test inject device messages.
type MockBroker struct {
	// RequestErrs maps the kind of a request body to the error Request returns.
	RequestErrs map[string]error
	// PublishErr fails every Publish and Request when set.
	PublishErr error
	// OnPublish runs after an envelope is recorded. Tests use it to emit the
	// status a command would trigger.
	OnPublish func(frame.RPCRequest)

	mu        sync.Mutex
	published []frame.RPCRequest
	bus       *eventbus.TypedBus[broker.Message]
}

var _ broker.Broker = (*MockBroker)(nil)

// NewMockBroker creates a new MockBroker.
func NewMockBroker() *MockBroker {
	return &MockBroker{
		RequestErrs: make(map[string]error),
		bus:         eventbus.NewTyped[broker.Message](),
	}
}

// Publish records the wrapped frame.
func (m *MockBroker) Publish(ctx context.Context, f frame.Frame) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.PublishErr != nil {
		return "", m.PublishErr
	}
	rpc := frame.Wrap(f, frame.DefaultPriority)
	m.mu.Lock()
	m.published = append(m.published, rpc)
	hook := m.OnPublish
	m.mu.Unlock()
	if hook != nil {
		hook(rpc)
	}
	return rpc.Label, nil
}

// Request records the frame and answers with the configured error for its
// kind.
func (m *MockBroker) Request(ctx context.Context, f frame.Frame, _ time.Duration) error {
	rpc := frame.Wrap(f, frame.DefaultPriority)
	if _, err := m.Publish(ctx, rpc); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RequestErrs[innerKind(rpc)]
}

// Listen registers a waiter on the injected messages.
func (m *MockBroker) Listen(channel string) broker.Waiter {
	return newWaiter(m.bus, channel)
}

// Emit delivers a device message on the channel.
func (m *MockBroker) Emit(channel string, payload []byte) {
	m.bus.Publish(broker.Message{
		Channel:  channel,
		Topic:    "bot/device_0/" + channel,
		Payload:  payload,
		Received: time.Now(),
	})
}

// Published returns the recorded envelopes.
func (m *MockBroker) Published() []frame.RPCRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]frame.RPCRequest, len(m.published))
	copy(out, m.published)
	return out
}

// Kinds returns the body kind of each recorded envelope.
func (m *MockBroker) Kinds() []string {
	var kinds []string
	for _, rpc := range m.Published() {
		kinds = append(kinds, innerKind(rpc))
	}
	return kinds
}

// Last returns the most recent envelope.
func (m *MockBroker) Last() (frame.RPCRequest, bool) {
	p := m.Published()
	if len(p) == 0 {
		return frame.RPCRequest{}, false
	}
	return p[len(p)-1], true
}

// Messages streams the injected messages.
func (m *MockBroker) Messages() <-chan broker.Message { return m.bus.SubscribeFunc(nil, 64) }

// Unsubscribe stops a stream returned by Messages.
func (m *MockBroker) Unsubscribe(ch <-chan broker.Message) { m.bus.Unsubscribe(ch) }

// Disconnect closes the message bus.
func (m *MockBroker) Disconnect() { m.bus.Close() }

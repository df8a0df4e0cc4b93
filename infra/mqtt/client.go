package mqtt

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/farmbot/auth"
	"github.com/kilianp07/farmbot/core/broker"
	"github.com/kilianp07/farmbot/core/frame"
	"github.com/kilianp07/farmbot/core/metrics"
	"github.com/kilianp07/farmbot/core/monitoring"
	"github.com/kilianp07/farmbot/infra/logger"
	"github.com/kilianp07/farmbot/internal/eventbus"
)

const channelFromClients = "from_clients"

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// PahoClient implements broker.Broker on top of Eclipse Paho. Replies are
// matched to requests by envelope label, so several requests may be in
// flight at once.
type PahoClient struct {
	cli    pahoClient
	cfg    Config
	device string

	mu      sync.Mutex
	pending map[string]chan frame.Reply

	ready     chan struct{}
	readyOnce sync.Once
	readyErr  error
	closed    chan struct{}
	closeOnce sync.Once

	bus    *eventbus.TypedBus[broker.Message]
	logger logger.Logger
	sink   metrics.Sink
}

// Option customises a PahoClient.
type Option func(*PahoClient)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(p *PahoClient) { p.logger = l } }

// WithMetrics sets the metrics sink.
func WithMetrics(s metrics.Sink) Option {
	return func(p *PahoClient) {
		if s != nil {
			p.sink = s
		}
	}
}

var _ broker.Broker = (*PahoClient)(nil)

// NewPahoClient connects to the device broker with the session credentials
// and subscribes to the device channels.
func NewPahoClient(cfg Config, info auth.Info, options ...Option) (*PahoClient, error) {
	opts, err := NewClientOptions(cfg, info)
	if err != nil {
		return nil, err
	}
	pc := &PahoClient{
		cfg:     cfg,
		device:  info.DeviceID,
		pending: make(map[string]chan frame.Reply),
		ready:   make(chan struct{}),
		closed:  make(chan struct{}),
		bus:     eventbus.NewTyped[broker.Message](),
		logger:  logger.New("broker"),
		sink:    metrics.NopSink{},
	}
	for _, o := range options {
		o(pc)
	}
	pc.bus.OnDrop(func(m broker.Message) {
		pc.logger.Debugf("slow subscriber missed %s message", m.Channel)
	})

	// paho runs OnConnect on its own goroutine, after every (re)connect.
	opts.OnConnect = func(c paho.Client) {
		pc.logger.Infof("MQTT connected as %s", pc.device)
		err := pc.subscribe(c)
		pc.readyOnce.Do(func() {
			pc.readyErr = err
			close(pc.ready)
		})
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		pc.logger.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		pc.logger.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	select {
	case <-pc.ready:
	case <-time.After(cfg.connectTimeout()):
		c.Disconnect(250)
		return nil, fmt.Errorf("subscribe device channels: %w", broker.ErrResponseTimeout)
	}
	if pc.readyErr != nil {
		c.Disconnect(250)
		return nil, pc.readyErr
	}
	pc.cli = c
	return pc, nil
}

type subscriber interface {
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// subscribe blocks until the broker has acknowledged every device channel
// and returns the first failure.
func (p *PahoClient) subscribe(c subscriber) error {
	var first error
	for _, ch := range []string{broker.ChannelFromDevice, broker.ChannelStatus, broker.ChannelLogs} {
		if token := c.Subscribe(p.Topic(ch), p.cfg.qos(ch), p.onMessage); token.Wait() && token.Error() != nil {
			p.logger.Errorf("subscribe %s: %v", ch, token.Error())
			if first == nil {
				first = fmt.Errorf("subscribe %s: %w", ch, token.Error())
			}
		}
	}
	return first
}

// Topic returns the device topic of a channel.
func (p *PahoClient) Topic(channel string) string {
	return fmt.Sprintf("bot/%s/%s", p.device, channel)
}

func (p *PahoClient) onMessage(_ paho.Client, msg paho.Message) {
	topic := msg.Topic()
	m := broker.Message{
		Channel:  topic[strings.LastIndex(topic, "/")+1:],
		Topic:    topic,
		Payload:  msg.Payload(),
		Received: time.Now(),
	}
	if m.Channel == broker.ChannelFromDevice {
		p.onReply(m.Payload)
	}
	p.bus.Publish(m)
}

func (p *PahoClient) onReply(payload []byte) {
	reply, err := frame.DecodeReply(payload)
	if err != nil {
		p.logger.Debugf("ignoring device frame: %v", err)
		return
	}
	p.mu.Lock()
	ch, ok := p.pending[reply.Label]
	if ok {
		select {
		case ch <- reply:
		default:
		}
	}
	p.mu.Unlock()
	if ok {
		p.logger.Debugf("received %s for %s", reply.Kind, reply.Label)
	}
}

// Publish wraps the frame in an envelope when needed and sends it to the
// device. It does not wait for the device to answer.
func (p *PahoClient) Publish(ctx context.Context, f frame.Frame) (string, error) {
	rpc := frame.Wrap(f, frame.DefaultPriority)
	return rpc.Label, p.send(ctx, rpc)
}

func (p *PahoClient) send(ctx context.Context, rpc frame.RPCRequest) error {
	if p.cli == nil || !p.cli.IsConnected() {
		return broker.ErrNotConnected
	}
	payload, err := frame.Marshal(rpc)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	kind := innerKind(rpc)
	token := p.cli.Publish(p.Topic(channelFromClients), p.cfg.qos("command"), false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		p.logger.Errorf("publish %s failed: %v", kind, err)
		monitoring.CaptureException(err, map[string]string{"module": "mqtt", "kind": kind, "device": p.device})
		return err
	}
	p.logger.Debugw("published", map[string]any{"kind": kind, "label": rpc.Label, "priority": rpc.Priority})
	if err := p.sink.RecordCommand(metrics.CommandEvent{Kind: kind, Label: rpc.Label, Priority: rpc.Priority, Time: time.Now()}); err != nil {
		p.logger.Warnf("record command: %v", err)
	}
	return nil
}

func innerKind(rpc frame.RPCRequest) string {
	if len(rpc.Body) == 1 {
		return rpc.Body[0].Kind()
	}
	return rpc.Kind()
}

// Request publishes the frame and blocks until the device replies to its
// label or the timeout expires.
func (p *PahoClient) Request(ctx context.Context, f frame.Frame, timeout time.Duration) error {
	rpc := frame.Wrap(f, frame.DefaultPriority)
	ch := make(chan frame.Reply, 1)
	p.mu.Lock()
	p.pending[rpc.Label] = ch
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.pending, rpc.Label)
		p.mu.Unlock()
	}()

	start := time.Now()
	if err := p.send(ctx, rpc); err != nil {
		return err
	}
	ev := metrics.ReplyEvent{Kind: innerKind(rpc), Label: rpc.Label}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var err error
	select {
	case reply := <-ch:
		ev.OK = reply.OK()
		err = reply.Err()
	case <-timer.C:
		ev.Timeout = true
		err = fmt.Errorf("%s %s: %w", ev.Kind, rpc.Label, broker.ErrResponseTimeout)
	case <-p.closed:
		err = broker.ErrNotConnected
	case <-ctx.Done():
		err = ctx.Err()
	}
	ev.Latency = time.Since(start)
	ev.Time = time.Now()
	if err != nil {
		ev.Error = err.Error()
	}
	if rerr := p.sink.RecordReply(ev); rerr != nil {
		p.logger.Warnf("record reply: %v", rerr)
	}
	return err
}

// Listen registers a one-shot waiter for the next message of a channel.
func (p *PahoClient) Listen(channel string) broker.Waiter {
	return newWaiter(p.bus, channel)
}

// Messages streams every inbound message until Unsubscribe or Disconnect.
func (p *PahoClient) Messages() <-chan broker.Message {
	return p.bus.SubscribeFunc(nil, 64)
}

// Unsubscribe stops a stream returned by Messages.
func (p *PahoClient) Unsubscribe(ch <-chan broker.Message) { p.bus.Unsubscribe(ch) }

// Disconnect gracefully closes the MQTT connection. Pending waiters and
// in-flight requests fail with broker.ErrNotConnected.
func (p *PahoClient) Disconnect() {
	p.closeOnce.Do(func() { close(p.closed) })
	p.bus.Close()
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}

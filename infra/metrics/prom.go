package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/farmbot/core/metrics"
)

// PromSink records client activity in Prometheus metrics.
type PromSink struct {
	commands   *prometheus.CounterVec
	replies    *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	apiCalls   *prometheus.CounterVec
	apiLatency *prometheus.HistogramVec
	messages   *prometheus.CounterVec
}

var _ coremetrics.MessageRecorder = (*PromSink)(nil)

// NewPromSink registers the client metrics on the default Prometheus
// registerer. The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	commands, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "farmbot_commands_total",
		Help: "Total number of command frames published to the device",
	}, []string{"kind", "priority"}))
	if err != nil {
		return nil, err
	}
	replies, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "farmbot_replies_total",
		Help: "Total number of awaited device replies by outcome",
	}, []string{"kind", "outcome"}))
	if err != nil {
		return nil, err
	}
	latency, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "farmbot_reply_latency_seconds",
		Help:    "Time between publishing a request and its reply",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind", "outcome"}))
	if err != nil {
		return nil, err
	}
	apiCalls, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "farmbot_api_requests_total",
		Help: "Total number of web API requests",
	}, []string{"method", "endpoint", "status"}))
	if err != nil {
		return nil, err
	}
	apiLatency, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "farmbot_api_latency_seconds",
		Help:    "Web API request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}))
	if err != nil {
		return nil, err
	}
	messages, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "farmbot_device_messages_total",
		Help: "Total number of messages received from the device",
	}, []string{"channel"}))
	if err != nil {
		return nil, err
	}
	return &PromSink{
		commands:   commands,
		replies:    replies,
		latency:    latency,
		apiCalls:   apiCalls,
		apiLatency: apiLatency,
		messages:   messages,
	}, nil
}

// register returns the already registered collector when the metric exists.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

func outcome(ev coremetrics.ReplyEvent) string {
	switch {
	case ev.Timeout:
		return "timeout"
	case ev.OK:
		return "ok"
	default:
		return "error"
	}
}

// RecordCommand increments the command counter.
func (s *PromSink) RecordCommand(ev coremetrics.CommandEvent) error {
	s.commands.WithLabelValues(ev.Kind, strconv.Itoa(ev.Priority)).Inc()
	return nil
}

// RecordReply counts the reply and observes its latency.
func (s *PromSink) RecordReply(ev coremetrics.ReplyEvent) error {
	o := outcome(ev)
	s.replies.WithLabelValues(ev.Kind, o).Inc()
	s.latency.WithLabelValues(ev.Kind, o).Observe(ev.Latency.Seconds())
	return nil
}

// RecordAPIRequest counts the web API call and observes its latency.
func (s *PromSink) RecordAPIRequest(ev coremetrics.APIEvent) error {
	s.apiCalls.WithLabelValues(ev.Method, ev.Endpoint, strconv.Itoa(ev.Status)).Inc()
	s.apiLatency.WithLabelValues(ev.Method, ev.Endpoint).Observe(ev.Latency.Seconds())
	return nil
}

// RecordMessage counts inbound device messages per channel.
func (s *PromSink) RecordMessage(ev coremetrics.MessageEvent) error {
	s.messages.WithLabelValues(ev.Channel).Inc()
	return nil
}

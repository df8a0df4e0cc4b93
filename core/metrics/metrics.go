package metrics

import "time"

// CommandEvent records a frame published to the device.
type CommandEvent struct {
	Kind     string
	Label    string
	Priority int
	Time     time.Time
}

// ReplyEvent records the outcome of a request awaiting a device reply.
type ReplyEvent struct {
	Kind    string
	Label   string
	OK      bool
	Timeout bool
	Latency time.Duration
	Error   string
	Time    time.Time
}

// APIEvent records a single web API call.
type APIEvent struct {
	Method   string
	Endpoint string
	Status   int
	Latency  time.Duration
	Error    string
	Time     time.Time
}

// Sink records client activity for observability purposes.
type Sink interface {
	RecordCommand(ev CommandEvent) error
	RecordReply(ev ReplyEvent) error
	RecordAPIRequest(ev APIEvent) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordCommand(CommandEvent) error { return nil }
func (NopSink) RecordReply(ReplyEvent) error     { return nil }
func (NopSink) RecordAPIRequest(APIEvent) error  { return nil }

// Closer is implemented by sinks holding connections.
type Closer interface {
	Close()
}

// MessageEvent records an inbound device message.
type MessageEvent struct {
	Channel string
	Bytes   int
	Time    time.Time
}

// MessageRecorder is implemented by sinks that track inbound device traffic.
type MessageRecorder interface {
	RecordMessage(ev MessageEvent) error
}

package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/farmbot/core/broker"
	coremetrics "github.com/kilianp07/farmbot/core/metrics"
)

// Stream is a source of inbound device messages.
type Stream interface {
	Messages() <-chan broker.Message
	Unsubscribe(<-chan broker.Message)
}

// StartMessageCollector records every inbound device message on sinks that
// track device traffic. It stops when the context is canceled or the stream
// closes.
func StartMessageCollector(ctx context.Context, stream Stream, sink coremetrics.Sink) {
	if stream == nil || sink == nil {
		return
	}
	rec, ok := sink.(coremetrics.MessageRecorder)
	if !ok {
		return
	}
	sub := stream.Messages()
	go func() {
		defer stream.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-sub:
				if !ok {
					return
				}
				t := m.Received
				if t.IsZero() {
					t = time.Now()
				}
				_ = rec.RecordMessage(coremetrics.MessageEvent{Channel: m.Channel, Bytes: len(m.Payload), Time: t})
			}
		}
	}()
}

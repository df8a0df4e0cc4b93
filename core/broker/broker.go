// Package broker defines the contract between the device components and the
// publish/subscribe transport carrying command frames.
package broker

import (
	"context"
	"time"

	"github.com/kilianp07/farmbot/core/frame"
)

// Inbound channels published by the device. The channel of a message is the
// last segment of its topic.
const (
	ChannelFromDevice = "from_device"
	ChannelStatus     = "status"
	ChannelLogs       = "logs"
)

// Message is an inbound broker message.
type Message struct {
	Channel  string
	Topic    string
	Payload  []byte
	Received time.Time
}

// Waiter delivers the next message of one channel to a single caller.
type Waiter interface {
	// Wait blocks until a message arrives, the timeout elapses or ctx is
	// done. A timeout yields ErrResponseTimeout.
	Wait(ctx context.Context, timeout time.Duration) (Message, error)
	// Close releases the waiter.
	Close()
}

// Broker sends command frames to the device and observes its replies.
type Broker interface {
	// Publish sends the frame without waiting for an acknowledgement.
	// Frames that are not envelopes are wrapped at frame.DefaultPriority.
	// The returned label identifies the envelope.
	Publish(ctx context.Context, f frame.Frame) (label string, err error)

	// Request publishes the frame and waits for the rpc_ok or rpc_error
	// carrying the same label.
	Request(ctx context.Context, f frame.Frame, timeout time.Duration) error

	// Listen registers interest in the next message of a channel. Callers
	// listen before publishing the command that triggers the message.
	Listen(channel string) Waiter
}

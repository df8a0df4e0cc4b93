package farmbot

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kilianp07/farmbot/core/broker"
	"github.com/kilianp07/farmbot/core/frame"
	"github.com/kilianp07/farmbot/core/rest"
)

// Message types accepted by the device and the web API.
const (
	MessageAssertion = "assertion"
	MessageBusy      = "busy"
	MessageDebug     = "debug"
	MessageError     = "error"
	MessageFun       = "fun"
	MessageInfo      = "info"
	MessageSuccess   = "success"
	MessageWarn      = "warn"
)

// ChannelToast shows a message as a pop-up in the web app.
const ChannelToast = "toast"

func validMessageType(t string) error {
	switch t {
	case MessageAssertion, MessageBusy, MessageDebug, MessageError, MessageFun, MessageInfo, MessageSuccess, MessageWarn:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidMessageType, t)
}

// Messages sends log messages to the device and the web app.
type Messages struct {
	api    API
	broker broker.Broker
	settings
}

// NewMessages creates the Messages component.
func NewMessages(api API, b broker.Broker, opts ...Option) *Messages {
	return &Messages{api: api, broker: b, settings: newSettings("messages", opts)}
}

// Message has the device log text. An empty type means info.
func (m *Messages) Message(ctx context.Context, text, typ string, channels ...string) error {
	if typ == "" {
		typ = MessageInfo
	}
	if err := validMessageType(typ); err != nil {
		return err
	}
	if _, err := m.broker.Publish(ctx, frame.SendMessage{Message: text, Type: typ, Channels: channels}); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Debug sends a debug message.
func (m *Messages) Debug(ctx context.Context, text string) error {
	return m.Message(ctx, text, MessageDebug)
}

// Toast sends an info message shown as a pop-up.
func (m *Messages) Toast(ctx context.Context, text string) error {
	return m.Message(ctx, text, MessageInfo, ChannelToast)
}

// Log stores a log entry through the web API without involving the device.
func (m *Messages) Log(ctx context.Context, text, typ string, channels ...string) (rest.Resource, error) {
	if typ == "" {
		typ = MessageInfo
	}
	if err := validMessageType(typ); err != nil {
		return nil, err
	}
	if channels == nil {
		channels = []string{}
	}
	payload := map[string]any{"message": text, "type": typ, "channels": channels}
	res, err := m.api.Request(ctx, http.MethodPost, EndpointLogs, rest.NoID, payload)
	if err != nil {
		return nil, fmt.Errorf("post log: %w", err)
	}
	m.log.Debugf("logged %q", text)
	return res, nil
}

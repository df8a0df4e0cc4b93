package farmbot

import (
	"context"
	"fmt"

	"github.com/kilianp07/farmbot/core/broker"
	"github.com/kilianp07/farmbot/core/frame"
)

// BasicCommands publishes device-level commands. None of them wait for the
// device to act.
type BasicCommands struct {
	broker broker.Broker
	settings
}

// NewBasicCommands creates the BasicCommands component.
func NewBasicCommands(b broker.Broker, opts ...Option) *BasicCommands {
	return &BasicCommands{broker: b, settings: newSettings("basic-commands", opts)}
}

// Wait pauses the device for the given number of milliseconds.
func (c *BasicCommands) Wait(ctx context.Context, ms int) error {
	if ms < 0 {
		return fmt.Errorf("%w: %d ms", ErrInvalidDuration, ms)
	}
	return c.publish(ctx, frame.Wait{Milliseconds: ms})
}

// EStop locks the device. The envelope is sent at emergency priority so it
// preempts queued commands.
func (c *BasicCommands) EStop(ctx context.Context) error {
	c.log.Warnf("emergency stop requested")
	return c.publish(ctx, frame.Wrap(frame.EmergencyLock{}, frame.EmergencyPriority))
}

// Unlock releases an emergency stop, also at emergency priority.
func (c *BasicCommands) Unlock(ctx context.Context) error {
	c.log.Infof("emergency unlock requested")
	return c.publish(ctx, frame.Wrap(frame.EmergencyUnlock{}, frame.EmergencyPriority))
}

// Reboot restarts FarmBot OS.
func (c *BasicCommands) Reboot(ctx context.Context) error {
	return c.publish(ctx, frame.Reboot{Package: frame.PackageFarmbotOS})
}

// Shutdown powers the device off.
func (c *BasicCommands) Shutdown(ctx context.Context) error {
	return c.publish(ctx, frame.PowerOff{})
}

func (c *BasicCommands) publish(ctx context.Context, f frame.Frame) error {
	label, err := c.broker.Publish(ctx, f)
	if err != nil {
		return fmt.Errorf("%s: %w", kindOf(f), err)
	}
	c.log.Debugf("sent %s (%s)", kindOf(f), label)
	return nil
}

// kindOf names the command inside an envelope.
func kindOf(f frame.Frame) string {
	if rpc, ok := f.(frame.RPCRequest); ok && len(rpc.Body) == 1 {
		return rpc.Body[0].Kind()
	}
	return f.Kind()
}

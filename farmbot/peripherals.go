package farmbot

import (
	"context"
	"fmt"

	"github.com/kilianp07/farmbot/core/broker"
	"github.com/kilianp07/farmbot/core/frame"
	"github.com/kilianp07/farmbot/core/rest"
)

// PeripheralMode asks ControlPeripheral to use the mode configured on the
// peripheral.
const PeripheralMode = -1

var servoPins = map[int]bool{4: true, 5: true, 6: true, 11: true}

// Peripherals drives pins and servos.
type Peripherals struct {
	broker broker.Broker
	info   *Information
	settings
}

// NewPeripherals creates the Peripherals component. Peripheral modes are
// looked up through info.
func NewPeripherals(b broker.Broker, info *Information, opts ...Option) *Peripherals {
	return &Peripherals{broker: b, info: info, settings: newSettings("peripherals", opts)}
}

// ControlPeripheral writes value to the pin of a peripheral. With
// PeripheralMode the peripheral's configured mode is used.
func (p *Peripherals) ControlPeripheral(ctx context.Context, id rest.ID, value, mode int) error {
	if mode == PeripheralMode {
		per, err := p.info.peripheral(ctx, id)
		if err != nil {
			return err
		}
		mode = per.Mode
	}
	if mode != frame.PinModeDigital && mode != frame.PinModeAnalog {
		return fmt.Errorf("invalid pin mode %d", mode)
	}
	return p.publish(ctx, frame.WritePin{Pin: frame.PeripheralPin(int(id)), Value: value, Mode: mode})
}

// TogglePeripheral flips the pin of a peripheral.
func (p *Peripherals) TogglePeripheral(ctx context.Context, id rest.ID) error {
	return p.publish(ctx, frame.TogglePin{Pin: frame.PeripheralPin(int(id))})
}

// On turns a peripheral fully on: 1 for digital pins, 255 for analog ones.
func (p *Peripherals) On(ctx context.Context, id rest.ID) error {
	per, err := p.info.peripheral(ctx, id)
	if err != nil {
		return err
	}
	value := 1
	if per.Mode == frame.PinModeAnalog {
		value = 255
	}
	return p.ControlPeripheral(ctx, id, value, per.Mode)
}

// Off turns a peripheral off.
func (p *Peripherals) Off(ctx context.Context, id rest.ID) error {
	return p.ControlPeripheral(ctx, id, 0, PeripheralMode)
}

// ControlServo moves the servo on pin 4, 5, 6 or 11 to an angle in [0, 180].
func (p *Peripherals) ControlServo(ctx context.Context, pin, angle int) error {
	if !servoPins[pin] {
		return fmt.Errorf("%w: pin %d", ErrInvalidServo, pin)
	}
	if angle < 0 || angle > 180 {
		return fmt.Errorf("%w: angle %d", ErrInvalidServo, angle)
	}
	return p.publish(ctx, frame.SetServoAngle{Pin: pin, Angle: angle})
}

func (p *Peripherals) publish(ctx context.Context, f frame.Frame) error {
	if _, err := p.broker.Publish(ctx, f); err != nil {
		return fmt.Errorf("%s: %w", f.Kind(), err)
	}
	p.log.Debugf("sent %s", f.Kind())
	return nil
}

package farmbot

import (
	"context"
	"fmt"

	"github.com/kilianp07/farmbot/core/broker"
	"github.com/kilianp07/farmbot/core/frame"
)

// MovementControls moves the device and checks where it is.
type MovementControls struct {
	broker broker.Broker
	info   *Information
	settings
}

// NewMovementControls creates the MovementControls component. Position
// queries go through info.
func NewMovementControls(b broker.Broker, info *Information, opts ...Option) *MovementControls {
	return &MovementControls{broker: b, info: info, settings: newSettings("movement", opts)}
}

// Move sends the device to an absolute coordinate. The new position is not
// re-read.
func (m *MovementControls) Move(ctx context.Context, x, y, z float64) error {
	return m.publish(ctx, frame.Wrap(frame.MoveTo(x, y, z), frame.DefaultPriority))
}

// SetHome makes the current position the origin of an axis.
func (m *MovementControls) SetHome(ctx context.Context, axis frame.Axis) error {
	if err := axis.Validate(); err != nil {
		return err
	}
	return m.publish(ctx, frame.Wrap(frame.Zero{Axis: axis}, frame.DefaultPriority))
}

// FindHome moves an axis to its home position. Speed is a percentage in
// [1, 100]; anything else is rejected before a frame is sent.
func (m *MovementControls) FindHome(ctx context.Context, axis frame.Axis, speed int) error {
	if speed < 1 || speed > 100 {
		m.log.Errorf("find home: speed %d out of range", speed)
		return fmt.Errorf("%w: got %d", ErrInvalidSpeed, speed)
	}
	if err := axis.Validate(); err != nil {
		return err
	}
	return m.publish(ctx, frame.Wrap(frame.FindHome{Axis: axis, Speed: speed}, frame.DefaultPriority))
}

// AxisLength starts axis calibration. The measured length ends up in the
// firmware config; it is not returned here.
func (m *MovementControls) AxisLength(ctx context.Context, axis frame.Axis) error {
	if err := axis.Validate(); err != nil {
		return err
	}
	return m.publish(ctx, frame.Wrap(frame.Calibrate{Axis: axis}, frame.DefaultPriority))
}

// GetXYZ returns the current position from a fresh status tree.
func (m *MovementControls) GetXYZ(ctx context.Context) (Position, error) {
	tree, err := m.info.ReadStatus(ctx)
	if err != nil {
		return Position{}, err
	}
	return tree.Position()
}

// CheckPosition reports whether the device is within tol of (x, y, z) on
// every axis. The verdict is also written to the reporter.
func (m *MovementControls) CheckPosition(ctx context.Context, x, y, z, tol float64) (bool, error) {
	pos, err := m.GetXYZ(ctx)
	if err != nil {
		return false, err
	}
	ok := pos.Within(Position{X: x, Y: y, Z: z}, tol)
	if ok {
		fmt.Fprintf(m.reporter, "Farmbot is at position %s\n", pos)
		m.log.Infof("position %s within %g of (%g, %g, %g)", pos, tol, x, y, z)
	} else {
		fmt.Fprintf(m.reporter, "Farmbot is NOT at position %s\n", pos)
		m.log.Warnf("position %s outside %g of (%g, %g, %g)", pos, tol, x, y, z)
	}
	return ok, nil
}

func (m *MovementControls) publish(ctx context.Context, f frame.Frame) error {
	label, err := m.broker.Publish(ctx, f)
	if err != nil {
		return fmt.Errorf("%s: %w", kindOf(f), err)
	}
	m.log.Debugf("sent %s (%s)", kindOf(f), label)
	return nil
}

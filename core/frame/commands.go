package frame

import (
	"errors"
	"fmt"
)

// ErrInvalidAxis is returned for an axis outside the fixed enumeration.
var ErrInvalidAxis = errors.New("invalid axis")

// Axis names a device axis.
type Axis string

const (
	AxisAll Axis = "all"
	AxisX   Axis = "x"
	AxisY   Axis = "y"
	AxisZ   Axis = "z"
)

// Validate reports whether the axis is one of all, x, y or z.
func (a Axis) Validate() error {
	switch a {
	case AxisAll, AxisX, AxisY, AxisZ:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidAxis, string(a))
}

// Pin modes used by read_pin and write_pin.
const (
	PinModeDigital = 0
	PinModeAnalog  = 1
)

// Wait pauses the device sequence.
type Wait struct{ Milliseconds int }

func (Wait) Kind() string { return "wait" }
func (w Wait) args() any {
	return struct {
		Milliseconds int `json:"milliseconds"`
	}{w.Milliseconds}
}

// EmergencyLock e-stops the microcontroller.
type EmergencyLock struct{}

func (EmergencyLock) Kind() string { return "emergency_lock" }
func (EmergencyLock) args() any    { return nil }

// EmergencyUnlock releases an e-stop.
type EmergencyUnlock struct{}

func (EmergencyUnlock) Kind() string { return "emergency_unlock" }
func (EmergencyUnlock) args() any    { return nil }

// PackageFarmbotOS is the operating system package of the device.
const PackageFarmbotOS = "farmbot_os"

// Reboot restarts a device package, farmbot_os when Package is empty.
type Reboot struct{ Package string }

func (Reboot) Kind() string { return "reboot" }
func (r Reboot) args() any {
	pkg := r.Package
	if pkg == "" {
		pkg = PackageFarmbotOS
	}
	return struct {
		Package string `json:"package"`
	}{pkg}
}

// PowerOff shuts the device down.
type PowerOff struct{}

func (PowerOff) Kind() string { return "power_off" }
func (PowerOff) args() any    { return nil }

// ExecuteScript runs an installed script by label.
type ExecuteScript struct{ Label string }

func (ExecuteScript) Kind() string { return "execute_script" }
func (e ExecuteScript) args() any {
	return struct {
		Label string `json:"label"`
	}{e.Label}
}

// ReadStatus asks the device to publish its status tree.
type ReadStatus struct{}

func (ReadStatus) Kind() string { return "read_status" }
func (ReadStatus) args() any    { return nil }

// NamedPin references a pin through a configured resource.
type NamedPin struct {
	PinType string
	PinID   int
}

func (NamedPin) Kind() string { return "named_pin" }
func (n NamedPin) args() any {
	return struct {
		PinType string `json:"pin_type"`
		PinID   int    `json:"pin_id"`
	}{n.PinType, n.PinID}
}

// PeripheralPin returns the named pin of a peripheral resource.
func PeripheralPin(id int) NamedPin { return NamedPin{PinType: "Peripheral", PinID: id} }

// ReadPin reads a pin; the value lands in the status tree.
type ReadPin struct {
	Pin   NamedPin
	Mode  int
	Label string
}

func (ReadPin) Kind() string { return "read_pin" }
func (r ReadPin) args() any {
	label := r.Label
	if label == "" {
		label = "---"
	}
	return struct {
		PinMode   int    `json:"pin_mode"`
		Label     string `json:"label"`
		PinNumber node   `json:"pin_number"`
	}{r.Mode, label, toNode(r.Pin)}
}

// WritePin sets a pin value.
type WritePin struct {
	Pin   NamedPin
	Value int
	Mode  int
}

func (WritePin) Kind() string { return "write_pin" }
func (w WritePin) args() any {
	return struct {
		PinValue  int  `json:"pin_value"`
		PinMode   int  `json:"pin_mode"`
		PinNumber node `json:"pin_number"`
	}{w.Value, w.Mode, toNode(w.Pin)}
}

// TogglePin flips a digital pin.
type TogglePin struct{ Pin NamedPin }

func (TogglePin) Kind() string { return "toggle_pin" }
func (t TogglePin) args() any {
	return struct {
		PinNumber node `json:"pin_number"`
	}{toNode(t.Pin)}
}

// SetServoAngle drives a servo on a raw pin number.
type SetServoAngle struct {
	Pin   int
	Angle int
}

func (SetServoAngle) Kind() string { return "set_servo_angle" }
func (s SetServoAngle) args() any {
	return struct {
		PinNumber int `json:"pin_number"`
		PinValue  int `json:"pin_value"`
	}{s.Pin, s.Angle}
}

// Numeric is a literal operand.
type Numeric struct{ Number float64 }

func (Numeric) Kind() string { return "numeric" }
func (n Numeric) args() any {
	return struct {
		Number float64 `json:"number"`
	}{n.Number}
}

// AxisOverwrite sets the target of one axis in a Move.
type AxisOverwrite struct {
	Axis    Axis
	Operand Numeric
}

func (AxisOverwrite) Kind() string { return "axis_overwrite" }
func (a AxisOverwrite) args() any {
	return struct {
		Axis        Axis `json:"axis"`
		AxisOperand node `json:"axis_operand"`
	}{a.Axis, toNode(a.Operand)}
}

// Move moves to the coordinates described by its axis overwrites.
type Move struct{ Axes []AxisOverwrite }

// MoveTo builds an absolute move to (x, y, z).
func MoveTo(x, y, z float64) Move {
	return Move{Axes: []AxisOverwrite{
		{Axis: AxisX, Operand: Numeric{x}},
		{Axis: AxisY, Operand: Numeric{y}},
		{Axis: AxisZ, Operand: Numeric{z}},
	}}
}

func (Move) Kind() string { return "move" }
func (Move) args() any    { return nil }
func (m Move) body() []Frame {
	out := make([]Frame, len(m.Axes))
	for i, a := range m.Axes {
		out[i] = a
	}
	return out
}

// Zero sets the current position as home for an axis.
type Zero struct{ Axis Axis }

func (Zero) Kind() string { return "zero" }
func (z Zero) args() any {
	return struct {
		Axis Axis `json:"axis"`
	}{z.Axis}
}

// FindHome moves an axis to its home position.
type FindHome struct {
	Axis  Axis
	Speed int
}

func (FindHome) Kind() string { return "find_home" }
func (f FindHome) args() any {
	return struct {
		Axis  Axis `json:"axis"`
		Speed int  `json:"speed"`
	}{f.Axis, f.Speed}
}

// Calibrate measures the length of an axis.
type Calibrate struct{ Axis Axis }

func (Calibrate) Kind() string { return "calibrate" }
func (c Calibrate) args() any {
	return struct {
		Axis Axis `json:"axis"`
	}{c.Axis}
}

// Channel names an additional message channel.
type Channel struct{ Name string }

func (Channel) Kind() string { return "channel" }
func (c Channel) args() any {
	return struct {
		ChannelName string `json:"channel_name"`
	}{c.Name}
}

// SendMessage logs a message on the device, optionally to extra channels
// such as "toast" or "email".
type SendMessage struct {
	Message  string
	Type     string
	Channels []string
}

func (SendMessage) Kind() string { return "send_message" }
func (s SendMessage) args() any {
	typ := s.Type
	if typ == "" {
		typ = "info"
	}
	return struct {
		Message     string `json:"message"`
		MessageType string `json:"message_type"`
	}{s.Message, typ}
}
func (s SendMessage) body() []Frame {
	out := make([]Frame, len(s.Channels))
	for i, c := range s.Channels {
		out[i] = Channel{Name: c}
	}
	return out
}

// TakePhoto captures an image with the device camera.
type TakePhoto struct{}

func (TakePhoto) Kind() string { return "take_photo" }
func (TakePhoto) args() any    { return nil }

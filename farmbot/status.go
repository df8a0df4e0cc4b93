package farmbot

import (
	"fmt"
	"strconv"
	"strings"
)

// Position is a device coordinate in millimetres.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
}

// Within reports whether every axis of p lies within tol of want, bounds
// included.
func (p Position) Within(want Position, tol float64) bool {
	return within(p.X, want.X, tol) && within(p.Y, want.Y, tol) && within(p.Z, want.Z, tol)
}

func within(actual, want, tol float64) bool {
	return actual-tol <= want && want <= actual+tol
}

// GardenSize is the usable bed area derived from the firmware config.
type GardenSize struct {
	LengthX float64 `json:"length_x"`
	LengthY float64 `json:"length_y"`
	Area    float64 `json:"area"`
}

// StatusTree is the device state published on the status channel.
type StatusTree map[string]any

// Position extracts location_data.position.
func (t StatusTree) Position() (Position, error) {
	pos, err := t.object("location_data", "position")
	if err != nil {
		return Position{}, err
	}
	var p Position
	for axis, dst := range map[string]*float64{"x": &p.X, "y": &p.Y, "z": &p.Z} {
		v, ok := number(pos[axis])
		if !ok {
			return Position{}, fmt.Errorf("%w: location_data.position.%s", ErrMissingField, axis)
		}
		*dst = v
	}
	return p, nil
}

// PinValue returns the last value the device reported for a pin.
func (t StatusTree) PinValue(pin int) (float64, error) {
	p, err := t.object("pins", strconv.Itoa(pin))
	if err != nil {
		return 0, err
	}
	v, ok := number(p["value"])
	if !ok {
		return 0, fmt.Errorf("%w: pins.%d.value", ErrMissingField, pin)
	}
	return v, nil
}

func (t StatusTree) object(path ...string) (map[string]any, error) {
	cur := map[string]any(t)
	for i, key := range path {
		next, ok := cur[key].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(path[:i+1], "."))
		}
		cur = next
	}
	return cur, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

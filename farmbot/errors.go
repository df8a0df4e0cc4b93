package farmbot

import "errors"

var (
	// ErrInvalidSpeed is returned by FindHome for a speed outside [1, 100].
	ErrInvalidSpeed = errors.New("speed must be between 1 and 100")
	// ErrZeroStepsPerMM is returned by GardenSize when an axis reports zero
	// steps per millimetre.
	ErrZeroStepsPerMM = errors.New("steps per mm is zero")
	// ErrInvalidServo is returned for a servo pin or angle the device rejects.
	ErrInvalidServo = errors.New("invalid servo pin or angle")
	// ErrInvalidDuration is returned by Wait for a negative duration.
	ErrInvalidDuration = errors.New("duration must not be negative")
	// ErrInvalidMessageType is returned for an unknown message type.
	ErrInvalidMessageType = errors.New("invalid message type")
	// ErrMissingField is returned when a resource or status tree lacks an
	// expected value.
	ErrMissingField = errors.New("missing field")
)

package broker

import "errors"

// ErrResponseTimeout is returned when no matching message arrives before the
// deadline.
var ErrResponseTimeout = errors.New("timeout waiting for device response")

// ErrNotConnected is returned when publishing on a closed connection.
var ErrNotConnected = errors.New("broker not connected")

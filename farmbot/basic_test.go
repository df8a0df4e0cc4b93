package farmbot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/farmbot/core/frame"
	"github.com/kilianp07/farmbot/infra/mqtt"
)

func TestBasicCommandsFrames(t *testing.T) {
	cases := []struct {
		name     string
		call     func(context.Context, *BasicCommands) error
		kind     string
		args     map[string]any
		priority int
	}{
		{"wait", func(ctx context.Context, c *BasicCommands) error { return c.Wait(ctx, 1500) }, "wait", map[string]any{"milliseconds": 1500.0}, frame.DefaultPriority},
		{"e-stop", func(ctx context.Context, c *BasicCommands) error { return c.EStop(ctx) }, "emergency_lock", map[string]any{}, frame.EmergencyPriority},
		{"unlock", func(ctx context.Context, c *BasicCommands) error { return c.Unlock(ctx) }, "emergency_unlock", map[string]any{}, frame.EmergencyPriority},
		{"reboot", func(ctx context.Context, c *BasicCommands) error { return c.Reboot(ctx) }, "reboot", map[string]any{"package": "farmbot_os"}, frame.DefaultPriority},
		{"shutdown", func(ctx context.Context, c *BasicCommands) error { return c.Shutdown(ctx) }, "power_off", map[string]any{}, frame.DefaultPriority},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := mqtt.NewMockBroker()
			require.NoError(t, tc.call(context.Background(), NewBasicCommands(b, quiet)))

			published := b.Published()
			require.Len(t, published, 1)
			env := envelope(t, published[0])
			assert.Equal(t, float64(tc.priority), env["args"].(map[string]any)["priority"])
			cmd := body(t, env)
			assert.Equal(t, tc.kind, cmd["kind"])
			assert.Equal(t, tc.args, cmd["args"])
		})
	}
}

func TestWaitRejectsNegativeDuration(t *testing.T) {
	b := mqtt.NewMockBroker()
	err := NewBasicCommands(b, quiet).Wait(context.Background(), -1)
	assert.ErrorIs(t, err, ErrInvalidDuration)
	assert.Empty(t, b.Published())
}

func TestBasicCommandsPublishError(t *testing.T) {
	b := mqtt.NewMockBroker()
	b.PublishErr = errors.New("broker not connected")
	err := NewBasicCommands(b, quiet).EStop(context.Background())
	assert.ErrorIs(t, err, b.PublishErr)
}

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/farmbot/app"
	"github.com/kilianp07/farmbot/config"
	"github.com/kilianp07/farmbot/core/broker"
	"github.com/kilianp07/farmbot/core/frame"
	"github.com/kilianp07/farmbot/core/rest"
	"github.com/kilianp07/farmbot/farmbot"
	"github.com/kilianp07/farmbot/infra/logger"
	"github.com/kilianp07/farmbot/infra/mqtt"
)

type stubAPI struct {
	res      map[string]string
	endpoint string
	payload  any
}

func (s *stubAPI) Request(_ context.Context, _, endpoint string, _ rest.ID, payload any) (rest.Resource, error) {
	s.endpoint = endpoint
	if payload != nil {
		s.payload = payload
	}
	return rest.Resource(s.res[endpoint]), nil
}

// stubService replaces the service constructor with one backed by an
// in-memory broker and API.
func stubService(t *testing.T, api farmbot.API) (*mqtt.MockBroker, *int) {
	t.Helper()
	mb := mqtt.NewMockBroker()
	calls := new(int)
	orig := newService
	newService = func(_ context.Context, _ *config.Config, out io.Writer) (*app.Service, error) {
		*calls++
		bot := farmbot.New(api, mb, nil, farmbot.WithLogger(logger.NopLogger{}), farmbot.WithReporter(out))
		return &app.Service{Bot: bot, Broker: mb}, nil
	}
	t.Cleanup(func() { newService = orig })
	return mb, calls
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("farmbot:\n  email: a@b.c\n  password: pw\n"), 0o644))
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"-c", path}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestDeviceCommandsPublish(t *testing.T) {
	cases := []struct {
		args []string
		kind string
	}{
		{[]string{"estop"}, "emergency_lock"},
		{[]string{"unlock"}, "emergency_unlock"},
		{[]string{"reboot"}, "reboot"},
		{[]string{"shutdown"}, "power_off"},
		{[]string{"move", "10", "20.5", "-3"}, "move"},
		{[]string{"home", "set", "x"}, "zero"},
		{[]string{"home", "find"}, "find_home"},
	}
	for _, tc := range cases {
		t.Run(tc.args[0], func(t *testing.T) {
			mb, _ := stubService(t, &stubAPI{})
			_, err := execute(t, tc.args...)
			require.NoError(t, err)
			assert.Equal(t, []string{tc.kind}, mb.Kinds())
		})
	}
}

func TestInvalidArgumentsSkipLogin(t *testing.T) {
	_, calls := stubService(t, &stubAPI{})

	_, err := execute(t, "move", "1", "north", "3")
	require.Error(t, err)
	_, err = execute(t, "sensor", "-2")
	require.Error(t, err)
	assert.Zero(t, *calls)
}

func TestHomeFindRejectsSpeed(t *testing.T) {
	mb, _ := stubService(t, &stubAPI{})
	_, err := execute(t, "home", "find", "y", "--speed", "0")
	require.ErrorIs(t, err, farmbot.ErrInvalidSpeed)
	assert.Empty(t, mb.Published())

	_, err = execute(t, "home", "find", "y", "--speed", "100")
	require.NoError(t, err)
}

func TestInfoGetPrintsResource(t *testing.T) {
	api := &stubAPI{res: map[string]string{"fbos_config": `{"id":1,"os_auto_update":true}`}}
	stubService(t, api)

	out, err := execute(t, "info", "get", "fbos_config")
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, true, got["os_auto_update"])
}

func TestInfoSetDecodesValue(t *testing.T) {
	api := &stubAPI{res: map[string]string{"fbos_config": `{"id":1}`}}
	stubService(t, api)

	_, err := execute(t, "info", "set", "fbos_config", "sequence_body_log", "true")
	require.NoError(t, err)
	b, err := json.Marshal(api.payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sequence_body_log":true}`, string(b))
}

// replyStatus answers every read_status with tree.
func replyStatus(mb *mqtt.MockBroker, tree string) {
	mb.OnPublish = func(rpc frame.RPCRequest) {
		if len(rpc.Body) == 1 && rpc.Body[0].Kind() == "read_status" {
			mb.Emit(broker.ChannelStatus, []byte(tree))
		}
	}
}

func TestPositionCheckReportsVerdict(t *testing.T) {
	const tree = `{"location_data":{"position":{"x":100,"y":200,"z":-10}}}`

	mb, _ := stubService(t, &stubAPI{})
	replyStatus(mb, tree)
	out, err := execute(t, "position", "check", "101", "199", "-9", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Farmbot is at position")

	// each command closes its service, so the next one gets a fresh broker
	mb, _ = stubService(t, &stubAPI{})
	replyStatus(mb, tree)
	out, err = execute(t, "position")
	require.NoError(t, err)
	assert.Equal(t, "(100, 200, -10)\n", out)
}

func TestMoveAcceptsNegativeCoordinates(t *testing.T) {
	mb, _ := stubService(t, &stubAPI{})
	_, err := execute(t, "move", "10", "20", "-5")
	require.NoError(t, err)

	_, err = execute(t, "move", "--", "-1", "-2.5", "-3")
	require.NoError(t, err)
	require.Len(t, mb.Published(), 2)

	b, err := frame.Marshal(mb.Published()[1])
	require.NoError(t, err)
	assert.Contains(t, string(b), "-2.5")
}

package farmbot

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/farmbot/core/broker"
	"github.com/kilianp07/farmbot/core/frame"
	"github.com/kilianp07/farmbot/core/rest"
	"github.com/kilianp07/farmbot/infra/mqtt"
)

func TestGetInfoReturnsResource(t *testing.T) {
	api := newFakeAPI()
	api.put(EndpointFbosConfig, rest.NoID, map[string]any{"safe_height": 40.0})
	info := NewInformation(api, mqtt.NewMockBroker(), quiet)

	res, err := info.GetInfo(context.Background(), EndpointFbosConfig, rest.NoID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"safe_height":40}`, res.String())
}

func TestGetInfoPropagatesError(t *testing.T) {
	api := newFakeAPI()
	api.err = errors.New("connection refused")
	info := NewInformation(api, mqtt.NewMockBroker(), quiet)

	_, err := info.GetInfo(context.Background(), EndpointCurves, rest.NoID)
	assert.ErrorIs(t, err, api.err)
}

func TestSetInfoRoundTrip(t *testing.T) {
	api := newFakeAPI()
	api.put(EndpointPeripherals, 3, map[string]any{"label": "Lights", "pin": 7.0, "mode": 0.0})
	info := NewInformation(api, mqtt.NewMockBroker(), quiet)
	ctx := context.Background()

	res, err := info.SetInfo(ctx, EndpointPeripherals, "label", "Water", 3)
	require.NoError(t, err)
	v, err := res.Field("label")
	require.NoError(t, err)
	assert.Equal(t, "Water", v)

	again, err := info.GetInfo(ctx, EndpointPeripherals, 3)
	require.NoError(t, err)
	v, err = again.Field("label")
	require.NoError(t, err)
	assert.Equal(t, "Water", v)

	assert.Equal(t, []string{"PATCH peripherals", "GET peripherals", "GET peripherals"}, api.methods())
}

func TestEditInfoStopsWhenWriteFails(t *testing.T) {
	api := newFakeAPI()
	info := NewInformation(api, mqtt.NewMockBroker(), quiet)
	_, err := info.EditInfo(context.Background(), EndpointCurves, map[string]any{"name": "x"}, 9)
	require.Error(t, err)
	assert.Equal(t, []string{"PATCH curves"}, api.methods())
}

func TestAddInfoReturnsCollection(t *testing.T) {
	api := newFakeAPI()
	info := NewInformation(api, mqtt.NewMockBroker(), quiet)

	res, err := info.AddInfo(context.Background(), EndpointPointGroups, map[string]any{"name": "Beds"})
	require.NoError(t, err)
	list, err := res.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Beds", list[0]["name"])
	assert.Equal(t, []string{"POST point_groups", "GET point_groups"}, api.methods())
}

func TestSafeZ(t *testing.T) {
	api := newFakeAPI()
	api.put(EndpointFbosConfig, rest.NoID, map[string]any{"safe_height": 42.5})
	z, err := NewInformation(api, mqtt.NewMockBroker(), quiet).SafeZ(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42.5, z)
}

func TestSafeZMissing(t *testing.T) {
	api := newFakeAPI()
	api.put(EndpointFbosConfig, rest.NoID, map[string]any{})
	_, err := NewInformation(api, mqtt.NewMockBroker(), quiet).SafeZ(context.Background())
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestGardenSize(t *testing.T) {
	cases := []struct {
		name           string
		stepsX, perMMX float64
		stepsY, perMMY float64
		wantX, wantY   float64
	}{
		{"default bed", 13750, 5, 6000, 5, 2750, 1200},
		{"fractional", 1000, 3, 500, 4, 1000.0 / 3, 125},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := newFakeAPI()
			api.put(EndpointFirmwareConfig, rest.NoID, map[string]any{
				"movement_axis_nr_steps_x": tc.stepsX,
				"movement_step_per_mm_x":   tc.perMMX,
				"movement_axis_nr_steps_y": tc.stepsY,
				"movement_step_per_mm_y":   tc.perMMY,
			})
			g, err := NewInformation(api, mqtt.NewMockBroker(), quiet).GardenSize(context.Background())
			require.NoError(t, err)
			assert.InDelta(t, tc.wantX, g.LengthX, 1e-9)
			assert.InDelta(t, tc.wantY, g.LengthY, 1e-9)
			assert.Equal(t, g.LengthX*g.LengthY, g.Area)
		})
	}
}

func TestGardenSizeZeroStepsPerMM(t *testing.T) {
	api := newFakeAPI()
	api.put(EndpointFirmwareConfig, rest.NoID, map[string]any{
		"movement_axis_nr_steps_x": 1000.0,
		"movement_step_per_mm_x":   5.0,
		"movement_axis_nr_steps_y": 1000.0,
		"movement_step_per_mm_y":   0.0,
	})
	_, err := NewInformation(api, mqtt.NewMockBroker(), quiet).GardenSize(context.Background())
	assert.ErrorIs(t, err, ErrZeroStepsPerMM)
}

func TestGroupAndCurve(t *testing.T) {
	api := newFakeAPI()
	api.put(EndpointPointGroups, 1, map[string]any{"name": "a"})
	api.put(EndpointCurves, 2, map[string]any{"name": "water"})
	info := NewInformation(api, mqtt.NewMockBroker(), quiet)
	ctx := context.Background()

	all, err := info.Group(ctx, rest.NoID)
	require.NoError(t, err)
	list, err := all.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)

	one, err := info.Curve(ctx, 2)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"water"}`, one.String())
}

func TestSoilHeightPublishesScript(t *testing.T) {
	b := mqtt.NewMockBroker()
	require.NoError(t, NewInformation(newFakeAPI(), b, quiet).SoilHeight(context.Background()))

	rpc, ok := b.Last()
	require.True(t, ok)
	cmd := body(t, envelope(t, rpc))
	assert.Equal(t, "execute_script", cmd["kind"])
	assert.Equal(t, map[string]any{"label": "Measure Soil Height"}, cmd["args"])
}

func TestReadStatus(t *testing.T) {
	b := mqtt.NewMockBroker()
	replyStatus(b, statusPayload(1, 2, 3, nil))
	info := NewInformation(newFakeAPI(), b, quiet)

	tree, err := info.ReadStatus(context.Background())
	require.NoError(t, err)
	pos, err := tree.Position()
	require.NoError(t, err)
	assert.Equal(t, Position{1, 2, 3}, pos)

	rpc, _ := b.Last()
	env := envelope(t, rpc)
	assert.Equal(t, "rpc_request", env["kind"])
	assert.Equal(t, float64(frame.DefaultPriority), env["args"].(map[string]any)["priority"])
	assert.Equal(t, "read_status", body(t, env)["kind"])
}

func TestReadStatusTimeout(t *testing.T) {
	b := mqtt.NewMockBroker()
	info := NewInformation(newFakeAPI(), b, quiet, WithStatusTimeout(10*time.Millisecond))

	tree, err := info.ReadStatus(context.Background())
	assert.ErrorIs(t, err, broker.ErrResponseTimeout)
	assert.Nil(t, tree)
}

func TestReadStatusIgnoresEarlierMessages(t *testing.T) {
	b := mqtt.NewMockBroker()
	// a status published before the call must not be returned
	b.Emit(broker.ChannelStatus, statusPayload(9, 9, 9, nil))
	info := NewInformation(newFakeAPI(), b, quiet, WithStatusTimeout(10*time.Millisecond))
	_, err := info.ReadStatus(context.Background())
	assert.ErrorIs(t, err, broker.ErrResponseTimeout)
}

func TestReadSensor(t *testing.T) {
	api := newFakeAPI()
	api.put(EndpointPeripherals, 12, map[string]any{"label": "Soil", "pin": 59.0, "mode": 1.0})
	b := mqtt.NewMockBroker()
	replyStatus(b, statusPayload(0, 0, 0, map[int]float64{59: 512}))
	info := NewInformation(api, b, quiet)

	v, err := info.ReadSensor(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, 512.0, v)

	published := b.Published()
	require.Len(t, published, 2)
	read := body(t, envelope(t, published[0]))
	assert.Equal(t, "read_pin", read["kind"])
	args := read["args"].(map[string]any)
	assert.Equal(t, 1.0, args["pin_mode"])
	assert.Equal(t, "---", args["label"])
	assert.Equal(t, map[string]any{
		"kind": "named_pin",
		"args": map[string]any{"pin_type": "Peripheral", "pin_id": 12.0},
	}, args["pin_number"])
	assert.Equal(t, "read_status", body(t, envelope(t, published[1]))["kind"])
}

func TestReadSensorRejected(t *testing.T) {
	api := newFakeAPI()
	api.put(EndpointPeripherals, 12, map[string]any{"pin": 59.0, "mode": 0.0})
	b := mqtt.NewMockBroker()
	b.RequestErrs["read_pin"] = &frame.RPCError{Label: "x", Explanations: []string{"pin busy"}}

	_, err := NewInformation(api, b, quiet).ReadSensor(context.Background(), 12)
	var rpcErr *frame.RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, []string{"read_pin"}, b.Kinds())
}

func TestEnv(t *testing.T) {
	api := newFakeAPI()
	info := NewInformation(api, mqtt.NewMockBroker(), quiet)
	ctx := context.Background()

	_, err := info.Env(ctx, rest.NoID, "CAMERA", "USB")
	require.NoError(t, err)
	_, err = info.Env(ctx, 1, "CAMERA", "RPI")
	require.NoError(t, err)
	res, err := info.Env(ctx, 1, "", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"CAMERA","value":"RPI"}`, res.String())

	assert.Equal(t, []string{
		"POST farmware_envs", "GET farmware_envs",
		"PATCH farmware_envs", "GET farmware_envs",
		"GET farmware_envs",
	}, api.methods())
	assert.Equal(t, http.MethodPatch, api.calls[2].Method)
	assert.Equal(t, rest.ID(1), api.calls[2].ID)
}

package farmbot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kilianp07/farmbot/core/broker"
	"github.com/kilianp07/farmbot/core/frame"
	"github.com/kilianp07/farmbot/core/rest"
)

// Web API endpoints used by the components.
const (
	EndpointFbosConfig     = "fbos_config"
	EndpointFirmwareConfig = "firmware_config"
	EndpointPointGroups    = "point_groups"
	EndpointCurves         = "curves"
	EndpointPeripherals    = "peripherals"
	EndpointFarmwareEnvs   = "farmware_envs"
	EndpointLogs           = "logs"
)

const scriptSoilHeight = "Measure Soil Height"

// Information reads and writes device configuration through the web API and
// queries live state over the broker.
type Information struct {
	api    API
	broker broker.Broker
	settings
}

// NewInformation creates the Information component.
func NewInformation(api API, b broker.Broker, opts ...Option) *Information {
	return &Information{api: api, broker: b, settings: newSettings("information", opts)}
}

// GetInfo returns an endpoint resource, or the whole collection for
// rest.NoID.
func (i *Information) GetInfo(ctx context.Context, endpoint string, id rest.ID) (rest.Resource, error) {
	res, err := i.api.Request(ctx, http.MethodGet, endpoint, id, nil)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", endpoint, err)
	}
	i.log.Debugw("fetched resource", map[string]any{"endpoint": endpoint, "id": int(id)})
	return res, nil
}

// SetInfo changes one field of a resource and returns the server's view of
// it afterwards.
func (i *Information) SetInfo(ctx context.Context, endpoint, field string, value any, id rest.ID) (rest.Resource, error) {
	return i.EditInfo(ctx, endpoint, map[string]any{field: value}, id)
}

// EditInfo patches a resource and re-reads it. The two requests are not
// atomic: a failed read leaves the write in place.
func (i *Information) EditInfo(ctx context.Context, endpoint string, payload any, id rest.ID) (rest.Resource, error) {
	if _, err := i.api.Request(ctx, http.MethodPatch, endpoint, id, payload); err != nil {
		return nil, fmt.Errorf("patch %s: %w", endpoint, err)
	}
	i.log.Infof("updated %s", endpoint)
	return i.GetInfo(ctx, endpoint, id)
}

// AddInfo creates a resource and returns the endpoint collection.
func (i *Information) AddInfo(ctx context.Context, endpoint string, payload any) (rest.Resource, error) {
	if _, err := i.api.Request(ctx, http.MethodPost, endpoint, rest.NoID, payload); err != nil {
		return nil, fmt.Errorf("post %s: %w", endpoint, err)
	}
	i.log.Infof("created %s", endpoint)
	return i.GetInfo(ctx, endpoint, rest.NoID)
}

// SafeZ returns the highest safe point along the z axis.
func (i *Information) SafeZ(ctx context.Context) (float64, error) {
	res, err := i.GetInfo(ctx, EndpointFbosConfig, rest.NoID)
	if err != nil {
		return 0, err
	}
	v, err := res.Field("safe_height")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMissingField, err)
	}
	z, ok := number(v)
	if !ok {
		return 0, fmt.Errorf("%w: safe_height is %T", ErrMissingField, v)
	}
	i.log.Debugf("safe z=%g", z)
	return z, nil
}

type firmwareConfig struct {
	StepsX      *float64 `json:"movement_axis_nr_steps_x"`
	StepsPerMMX *float64 `json:"movement_step_per_mm_x"`
	StepsY      *float64 `json:"movement_axis_nr_steps_y"`
	StepsPerMMY *float64 `json:"movement_step_per_mm_y"`
}

// GardenSize derives the axis lengths and bed area from the firmware config.
func (i *Information) GardenSize(ctx context.Context) (GardenSize, error) {
	res, err := i.GetInfo(ctx, EndpointFirmwareConfig, rest.NoID)
	if err != nil {
		return GardenSize{}, err
	}
	var fw firmwareConfig
	if err := res.Decode(&fw); err != nil {
		return GardenSize{}, fmt.Errorf("decode firmware config: %w", err)
	}
	lx, err := axisLength("x", fw.StepsX, fw.StepsPerMMX)
	if err != nil {
		return GardenSize{}, err
	}
	ly, err := axisLength("y", fw.StepsY, fw.StepsPerMMY)
	if err != nil {
		return GardenSize{}, err
	}
	g := GardenSize{LengthX: lx, LengthY: ly, Area: lx * ly}
	i.log.Debugw("garden size", map[string]any{"length_x": g.LengthX, "length_y": g.LengthY, "area": g.Area})
	return g, nil
}

func axisLength(axis string, steps, perMM *float64) (float64, error) {
	if steps == nil || perMM == nil {
		return 0, fmt.Errorf("%w: %s axis steps", ErrMissingField, axis)
	}
	if *perMM == 0 {
		return 0, fmt.Errorf("%w: %s axis", ErrZeroStepsPerMM, axis)
	}
	return *steps / *perMM, nil
}

// Group returns every point group, or one for a non-zero id.
func (i *Information) Group(ctx context.Context, id rest.ID) (rest.Resource, error) {
	return i.GetInfo(ctx, EndpointPointGroups, id)
}

// Curve returns every curve, or one for a non-zero id.
func (i *Information) Curve(ctx context.Context, id rest.ID) (rest.Resource, error) {
	return i.GetInfo(ctx, EndpointCurves, id)
}

// SoilHeight asks the device to measure the soil height at its location.
// The measurement is not awaited.
func (i *Information) SoilHeight(ctx context.Context) error {
	_, err := i.broker.Publish(ctx, frame.ExecuteScript{Label: scriptSoilHeight})
	return err
}

// ReadStatus requests the status tree and waits for the device to publish
// it. No tree within the status timeout yields broker.ErrResponseTimeout.
func (i *Information) ReadStatus(ctx context.Context) (StatusTree, error) {
	w := i.broker.Listen(broker.ChannelStatus)
	defer w.Close()
	if _, err := i.broker.Publish(ctx, frame.Wrap(frame.ReadStatus{}, frame.DefaultPriority)); err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}
	msg, err := w.Wait(ctx, i.statusTimeout)
	if err != nil {
		i.log.Warnf("no status within %s: %v", i.statusTimeout, err)
		return nil, fmt.Errorf("read status: %w", err)
	}
	var tree StatusTree
	if err := json.Unmarshal(msg.Payload, &tree); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return tree, nil
}

type peripheral struct {
	Pin  *int `json:"pin"`
	Mode int  `json:"mode"`
}

func (i *Information) peripheral(ctx context.Context, id rest.ID) (peripheral, error) {
	res, err := i.GetInfo(ctx, EndpointPeripherals, id)
	if err != nil {
		return peripheral{}, err
	}
	var p peripheral
	if err := res.Decode(&p); err != nil {
		return peripheral{}, fmt.Errorf("decode peripheral %d: %w", id, err)
	}
	return p, nil
}

// ReadSensor reads the pin of a peripheral and returns the value the device
// reports for it. The read_pin request is awaited before the status tree is
// fetched.
func (i *Information) ReadSensor(ctx context.Context, id rest.ID) (float64, error) {
	p, err := i.peripheral(ctx, id)
	if err != nil {
		return 0, err
	}
	if p.Pin == nil {
		return 0, fmt.Errorf("%w: peripheral %d has no pin", ErrMissingField, id)
	}
	read := frame.ReadPin{Pin: frame.PeripheralPin(int(id)), Mode: p.Mode}
	if err := i.broker.Request(ctx, read, i.rpcTimeout); err != nil {
		return 0, fmt.Errorf("read pin %d: %w", *p.Pin, err)
	}
	tree, err := i.ReadStatus(ctx)
	if err != nil {
		return 0, err
	}
	v, err := tree.PinValue(*p.Pin)
	if err != nil {
		return 0, err
	}
	i.log.Debugw("sensor read", map[string]any{"peripheral": int(id), "pin": *p.Pin, "value": v})
	return v, nil
}

// Env reads or writes farmware environment variables. An empty key returns
// the variable with the given id, or all of them. Otherwise the variable is
// updated when id is set and created when it is not.
func (i *Information) Env(ctx context.Context, id rest.ID, key string, value any) (rest.Resource, error) {
	if key == "" {
		return i.GetInfo(ctx, EndpointFarmwareEnvs, id)
	}
	payload := map[string]any{"key": key, "value": value}
	if id != rest.NoID {
		return i.EditInfo(ctx, EndpointFarmwareEnvs, payload, id)
	}
	return i.AddInfo(ctx, EndpointFarmwareEnvs, payload)
}

package farmbot

import (
	"context"
	"fmt"

	"github.com/kilianp07/farmbot/core/broker"
	"github.com/kilianp07/farmbot/core/frame"
)

const (
	scriptCameraCalibration = "camera-calibration"
	scriptPlantDetection    = "plant-detection"
)

// Camera triggers image capture and the image processing farmware.
type Camera struct {
	broker broker.Broker
	settings
}

// NewCamera creates the Camera component.
func NewCamera(b broker.Broker, opts ...Option) *Camera {
	return &Camera{broker: b, settings: newSettings("camera", opts)}
}

// TakePhoto captures an image and uploads it to the web app.
func (c *Camera) TakePhoto(ctx context.Context) error {
	return c.publish(ctx, frame.TakePhoto{})
}

// CalibrateCamera runs the camera calibration farmware.
func (c *Camera) CalibrateCamera(ctx context.Context) error {
	return c.publish(ctx, frame.ExecuteScript{Label: scriptCameraCalibration})
}

// DetectWeeds runs the plant detection farmware.
func (c *Camera) DetectWeeds(ctx context.Context) error {
	return c.publish(ctx, frame.ExecuteScript{Label: scriptPlantDetection})
}

func (c *Camera) publish(ctx context.Context, f frame.Frame) error {
	label, err := c.broker.Publish(ctx, f)
	if err != nil {
		return fmt.Errorf("%s: %w", f.Kind(), err)
	}
	c.log.Debugf("sent %s (%s)", f.Kind(), label)
	return nil
}

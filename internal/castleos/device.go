package castleos

import (
	"context"
	"strconv"
)

// Power states.
const (
	StatusOn  = "on"
	StatusOff = "off"
)

// Colour temperature bounds applied when the controller does not report its own.
const (
	DefaultColourTemperatureMin = 2000
	DefaultColourTemperatureMax = 6550
)

// dimStep is the percentage Dim lowers the level by.
const dimStep = 10

// Device is a controllable unit on the controller.
type Device struct {
	ID      string
	Name    string
	Address string
	Status  string

	// Level is the current dim level (currentState), 0 when off.
	Level      float64
	Brightness float64
	Hue        float64
	Saturation float64

	CanChangeColor            bool
	CanChangeColorTemperature bool
	ColourTemperatureMin      int
	ColourTemperatureMax      int

	// Groups holds up to three group IDs in controller order.
	Groups          []string
	LastStateChange string

	client *Client
}

func newDevice(c *Client) *Device {
	return &Device{
		Status:               StatusOff,
		ColourTemperatureMin: DefaultColourTemperatureMin,
		ColourTemperatureMax: DefaultColourTemperatureMax,
		client:               c,
	}
}

// IsOn reports the last known power state.
func (d *Device) IsOn() bool {
	return d.Status == StatusOn
}

// TurnOn switches the device on.
func (d *Device) TurnOn(ctx context.Context) error {
	return d.setPower(ctx, true)
}

// TurnOff switches the device off.
func (d *Device) TurnOff(ctx context.Context) error {
	return d.setPower(ctx, false)
}

func (d *Device) setPower(ctx context.Context, on bool) error {
	err := d.client.command(ctx, EndpointToggleDevicePower, Params{
		{Key: "id", Value: d.ID},
		{Key: "power", Value: strconv.FormatBool(on)},
	})
	if err != nil {
		return err
	}
	if on {
		d.Status = StatusOn
	} else {
		d.Status = StatusOff
	}
	return nil
}

// Dim lowers the level by 10 percent, turning the device off once it would
// reach zero.
func (d *Device) Dim(ctx context.Context) error {
	return d.DimTo(ctx, d.Level-dimStep)
}

// DimTo sets the dim level, which also switches the device on. A percent of
// zero or less turns the device off.
func (d *Device) DimTo(ctx context.Context, percent float64) error {
	if percent <= 0 {
		return d.TurnOff(ctx)
	}

	err := d.client.command(ctx, EndpointSetDimLevel, Params{
		{Key: "id", Value: d.ID},
		{Key: "percent", Value: formatFloat(percent)},
	})
	if err != nil {
		return err
	}
	d.Level = percent
	d.Status = StatusOn
	return nil
}

// Colour sets hue, saturation and brightness. Saturation and brightness may be
// given on a 0-100 scale; values above 1 are divided by 100.
func (d *Device) Colour(ctx context.Context, hue, saturation, brightness float64) error {
	if !d.CanChangeColor {
		return newError(KindCapabilityUnsupported, EndpointSetColour, nil)
	}

	if brightness > 1 {
		brightness = brightness / 100
	}
	if saturation > 1 {
		saturation = saturation / 100
	}

	return d.client.command(ctx, EndpointSetColour, Params{
		{Key: "id", Value: d.ID},
		{Key: "hue", Value: formatFloat(hue)},
		{Key: "saturation", Value: formatFloat(saturation)},
		{Key: "brightness", Value: formatFloat(brightness)},
	})
}

// Color is an alias of Colour.
func (d *Device) Color(ctx context.Context, hue, saturation, brightness float64) error {
	return d.Colour(ctx, hue, saturation, brightness)
}

// ColourTemperature sets the colour temperature in Kelvin, clamped to the
// device bounds.
func (d *Device) ColourTemperature(ctx context.Context, kelvin int) error {
	if !d.CanChangeColorTemperature {
		return newError(KindCapabilityUnsupported, EndpointSetColourTemp, nil)
	}

	return d.client.command(ctx, EndpointSetColourTemp, Params{
		{Key: "id", Value: d.ID},
		{Key: "colorTempKelvin", Value: strconv.Itoa(d.ClampColourTemperature(kelvin))},
	})
}

// ColorTemperature is an alias of ColourTemperature.
func (d *Device) ColorTemperature(ctx context.Context, kelvin int) error {
	return d.ColourTemperature(ctx, kelvin)
}

// ClampColourTemperature clamps kelvin into [ColourTemperatureMin, ColourTemperatureMax].
func (d *Device) ClampColourTemperature(kelvin int) int {
	if kelvin < d.ColourTemperatureMin {
		return d.ColourTemperatureMin
	}
	if kelvin > d.ColourTemperatureMax {
		return d.ColourTemperatureMax
	}
	return kelvin
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Package display renders reports on a small monochrome OLED. Which values
// are shown depends on the report's mode.
package display

import (
	"fmt"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/ericogr/thermo-pressure-daq/pkg/output"
	"github.com/ericogr/thermo-pressure-daq/pkg/sensor"
)

const lineHeight = 13

// Panel is the drawing surface, satisfied by *ssd1306.Dev.
type Panel interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Halt() error
}

type DisplayOutput struct {
	panel Panel
}

// NewSSD1306 opens a 128x64 SSD1306 at its default address 0x3C. Opening
// sends the init sequence, so a panel that does not acknowledge it fails
// here with ErrDeviceNotReady.
func NewSSD1306(bus i2c.Bus) (*DisplayOutput, error) {
	opts := ssd1306.DefaultOpts
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		return nil, fmt.Errorf("ssd1306: %w: %w", sensor.ErrDeviceNotReady, err)
	}
	return New(dev), nil
}

func New(p Panel) *DisplayOutput { return &DisplayOutput{panel: p} }

func (d *DisplayOutput) Clear() error {
	return d.panel.Draw(d.panel.Bounds(), image1bit.NewVerticalLSB(d.panel.Bounds()), image.Point{})
}

func (d *DisplayOutput) Publish(r output.Report) error {
	img := image1bit.NewVerticalLSB(d.panel.Bounds())
	drawer := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range Lines(r) {
		drawer.Dot = fixed.P(0, lineHeight*(i+1))
		drawer.DrawString(line)
	}
	return d.panel.Draw(d.panel.Bounds(), img, image.Point{})
}

func (d *DisplayOutput) Close() error { return d.panel.Halt() }

// Lines returns the text shown for r: mode 0 the temperatures, mode 1 the
// pressure with its error bound, mode 2 everything on one screen.
func Lines(r output.Report) []string {
	var lines []string
	switch r.Mode {
	case 0:
		for _, t := range r.Temperatures {
			lines = append(lines, fmt.Sprintf("T%d: %s", t.Channel, temperatureText(t)))
		}
	case 1:
		lines = append(lines, "P: "+pressureText(r.Pressure))
		if r.Pressure != nil && r.Pressure.Available {
			lines = append(lines, fmt.Sprintf("+- %.2f kPa", r.Pressure.ErrorKPa))
		}
	default:
		for _, t := range r.Temperatures {
			lines = append(lines, fmt.Sprintf("T%d %s", t.Channel, temperatureText(t)))
		}
		lines = append(lines, "P "+pressureText(r.Pressure))
	}
	return lines
}

func temperatureText(t sensor.TemperatureReading) string {
	if !t.Available {
		return "--"
	}
	return fmt.Sprintf("%.2f C", t.Celsius)
}

func pressureText(p *sensor.PressureReading) string {
	if p == nil || !p.Available {
		return "--"
	}
	return fmt.Sprintf("%.2f kPa", p.KPa)
}

var _ output.Output = (*DisplayOutput)(nil)

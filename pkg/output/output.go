package output

import (
	"time"

	"github.com/ericogr/thermo-pressure-daq/pkg/sensor"
)

// Report is what one acquisition cycle produced. A cycle stopped by a
// thermocouple failure reports only the channels read before it.
type Report struct {
	Timestamp    time.Time
	Temperatures []sensor.TemperatureReading
	Pressure     *sensor.PressureReading
	Mode         int
}

type Output interface {
	Publish(Report) error
	Close() error
}

// helper constructors are in subpackages

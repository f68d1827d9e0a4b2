// Package acquire runs the periodic sampling cycle: thermocouples first, in
// order, then the pressure channel, then one report to every output.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ericogr/thermo-pressure-daq/pkg/convert"
	"github.com/ericogr/thermo-pressure-daq/pkg/output"
	"github.com/ericogr/thermo-pressure-daq/pkg/sensor"
)

// ErrHalted is returned by Run when a thermocouple read failed under the
// halt policy.
var ErrHalted = errors.New("acquisition halted")

type FailurePolicy int

const (
	// Halt stops the loop on the first thermocouple read failure.
	Halt FailurePolicy = iota
	// Continue reports the thermocouple as unavailable and keeps going.
	Continue
)

// ModeSource returns the currently selected display mode.
type ModeSource interface {
	Current() int
}

// PressureReader is satisfied by *sensor.ChannelReader.
type PressureReader interface {
	ReadMillivolts() (int32, error)
	ReferenceVoltage() int32
}

type Loop struct {
	Thermocouples []sensor.Thermocouple
	Pressure      PressureReader
	Mode          ModeSource
	Outputs       []output.Output
	Period        time.Duration
	Policy        FailurePolicy
}

// Run samples until ctx is done or a halting failure occurs. The sleep is
// measured from the end of a cycle, so the effective period is Period plus
// the time spent reading and reporting.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if _, err := l.Cycle(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.Period):
		}
	}
}

// Cycle performs one acquisition and dispatches the report. Under the halt
// policy a thermocouple failure dispatches the readings taken so far and
// returns an error wrapping ErrHalted.
func (l *Loop) Cycle() (output.Report, error) {
	report := output.Report{Timestamp: time.Now()}

	for i, tc := range l.Thermocouples {
		reading, err := l.readTemperature(i, tc)
		if err != nil {
			log.Printf("Could not fetch temperature %d (%d): %v", i, sensor.Code(err), err)
			if l.Policy == Halt {
				report.Mode = l.currentMode()
				l.dispatch(report)
				return report, fmt.Errorf("%w: %w", ErrHalted, err)
			}
		}
		report.Temperatures = append(report.Temperatures, reading)
	}

	if l.Pressure != nil {
		reading := l.readPressure()
		report.Pressure = &reading
	}

	report.Mode = l.currentMode()
	l.dispatch(report)
	return report, nil
}

func (l *Loop) readTemperature(channel int, tc sensor.Thermocouple) (sensor.TemperatureReading, error) {
	reading := sensor.TemperatureReading{Channel: channel, Timestamp: time.Now()}
	if err := tc.Fetch(); err != nil {
		return unavailable(reading, err)
	}
	v, err := tc.Value()
	if err != nil {
		return unavailable(reading, err)
	}
	reading.Celsius = convert.TemperatureCelsius(v)
	reading.Available = true
	return reading, nil
}

func unavailable(reading sensor.TemperatureReading, err error) (sensor.TemperatureReading, error) {
	rerr := &sensor.ReadError{Kind: sensor.KindTemperature, Channel: reading.Channel, Op: sensor.ErrConversionFailed, Code: sensor.Code(err), Err: err}
	reading.Code = rerr.Code
	return reading, rerr
}

// readPressure never fails the cycle; a failed read is flagged unavailable
// with zero values and no previous value is carried over.
func (l *Loop) readPressure() sensor.PressureReading {
	reading := sensor.PressureReading{Timestamp: time.Now()}
	mv, err := l.Pressure.ReadMillivolts()
	if err != nil {
		reading.Code = sensor.Code(err)
		log.Printf("Could not read pressure (%d): %v", reading.Code, err)
		return reading
	}
	reading.Millivolts = mv
	reading.KPa = convert.PressureKPa(mv, l.Pressure.ReferenceVoltage())
	reading.ErrorKPa = convert.PressureErrorBoundKPa()
	reading.Available = true
	return reading
}

func (l *Loop) currentMode() int {
	if l.Mode == nil {
		return 0
	}
	return l.Mode.Current()
}

func (l *Loop) dispatch(r output.Report) {
	for _, o := range l.Outputs {
		if err := o.Publish(r); err != nil {
			log.Printf("publish error: %v", err)
		}
	}
}

package sensor

import (
	"time"

	"periph.io/x/conn/v3/physic"
)

type Kind int

const (
	KindTemperature Kind = iota
	KindPressure
)

func (k Kind) String() string {
	if k == KindPressure {
		return "pressure"
	}
	return "temperature"
}

// Thermocouple is a cold-junction-compensated thermocouple converter.
// Value returns the sample taken by the last successful Fetch.
type Thermocouple interface {
	IsReady() bool
	Fetch() error
	Value() (physic.Temperature, error)
}

// Sequence selects what a single ADC conversion samples.
type Sequence struct {
	Channel    int
	Resolution int
}

// ADC is a single-shot analog to digital converter.
type ADC interface {
	IsReady() bool
	ConfigureChannel(cfg ChannelConfig) error
	Read(seq Sequence) (int32, error)
	// ReferenceVoltage is the internal reference in millivolts.
	ReferenceVoltage() int32
}

type TemperatureReading struct {
	Channel   int       `json:"channel"`
	Celsius   float64   `json:"celsius"`
	Available bool      `json:"available"`
	Code      int       `json:"code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type PressureReading struct {
	Millivolts int32     `json:"millivolts"`
	KPa        float64   `json:"kpa"`
	ErrorKPa   float64   `json:"error_kpa"`
	Available  bool      `json:"available"`
	Code       int       `json:"code,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Package convert maps raw readings to physical units.
package convert

import "periph.io/x/conn/v3/physic"

// Transfer function of the pressure transducer, from its datasheet.
const (
	pressureSlopeKPa  = 56.0
	pressureOffsetKPa = -52.0
)

// PressureErrorKPa is the accuracy bound of the pressure transducer.
// The datasheet error varies with ambient temperature; this is the
// temperature-independent approximation.
const PressureErrorKPa = 1.25

// PressureKPa converts the transducer output mv to kPa, ratiometric to the
// reference voltage refMV.
func PressureKPa(mv, refMV int32) float64 {
	return pressureSlopeKPa*(float64(mv)/float64(refMV)) + pressureOffsetKPa
}

func PressureErrorBoundKPa() float64 { return PressureErrorKPa }

// TemperatureCelsius returns t in degrees Celsius. The driver already did
// the thermocouple conversion.
func TemperatureCelsius(t physic.Temperature) float64 {
	return float64(t-physic.ZeroCelsius) / float64(physic.Celsius)
}

package sensor

import (
	"fmt"

	"github.com/ericogr/thermo-pressure-daq/pkg/config"
)

// ChannelConfigFrom builds the pressure channel configuration.
func ChannelConfigFrom(cfg config.ADCConfig) (ChannelConfig, error) {
	gain, err := ParseGain(cfg.Gain)
	if err != nil {
		return ChannelConfig{}, fmt.Errorf("adc: %w", err)
	}
	return ChannelConfig{Channel: cfg.Channel, Gain: gain, Resolution: cfg.Resolution}, nil
}

// CheckThermocouples verifies every thermocouple is ready. Readiness is only
// checked here, before sampling starts.
func CheckThermocouples(tcs []Thermocouple) error {
	for i, tc := range tcs {
		if !tc.IsReady() {
			return &InitError{Device: fmt.Sprintf("sensor %d", i), Err: ErrDeviceNotReady}
		}
	}
	return nil
}

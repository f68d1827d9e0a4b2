package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadJSONFile(t *testing.T) {
	path := writeFile(t, "daq.json", `{
        "sensor_type": "simulation",
        "period_ms": 500,
        "thermocouples": [{"spi_port": "SPI0.0"}],
        "adc": {"i2c_bus": "2", "i2c_address": 72, "channel": 1, "gain": "1", "resolution": 15, "sample_rate": 250},
        "outputs": [{"type": "display", "display": {"i2c_bus": "2"}}]
    }`)

	cfg, err := LoadFromArgs([]string{"-config", path})
	require.NoError(t, err)
	assert.Equal(t, SensorSimulation, cfg.SensorType)
	assert.Equal(t, 500, cfg.PeriodMs)
	assert.Len(t, cfg.Thermocouples, 1)
	assert.Equal(t, 72, cfg.ADC.I2CAddress)
	assert.Equal(t, 250, cfg.ADC.SampleRate)
	require.Len(t, cfg.Outputs, 1)
	require.NotNil(t, cfg.Outputs[0].Display)
	assert.Equal(t, "2", cfg.Outputs[0].Display.I2CBus)
	// untouched keys keep their defaults
	assert.Equal(t, FailureHalt, cfg.ThermocoupleFailure)
	assert.Equal(t, KeyCode0, cfg.ModeKey)
}

func TestLoadYAMLFileWithFlagOverride(t *testing.T) {
	path := writeFile(t, "daq.yaml", `
sensor_type: real
thermocouple_failure: continue
adc:
  i2c_bus: "1"
  i2c_address: 0x48
  channel: 3
  gain: "1/3"
  resolution: 15
  sample_rate: 128
buttons:
  - pin: GPIO27
    key_code: 12
    active_low: true
  - pin: GPIO22
    key_code: 13
    debounce_ms: 50
`)

	cfg, err := LoadFromArgs([]string{"-config", path, "-adc-channel", "1"})
	require.NoError(t, err)
	assert.Equal(t, FailureContinue, cfg.ThermocoupleFailure)
	assert.Equal(t, 0x48, cfg.ADC.I2CAddress)
	assert.Equal(t, "1/3", cfg.ADC.Gain)
	assert.Equal(t, 1, cfg.ADC.Channel)
	assert.Equal(t, []ButtonConfig{
		{Pin: "GPIO27", KeyCode: 12, ActiveLow: true, DebounceMs: DefaultDebounceMs},
		{Pin: "GPIO22", KeyCode: 13, DebounceMs: 50},
	}, cfg.Buttons)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFromArgs([]string{"-config", filepath.Join(t.TempDir(), "missing.json")})
	assert.ErrorContains(t, err, "read config")

	path := writeFile(t, "broken.json", `{"period_ms": "soon"}`)
	_, err = LoadFromArgs([]string{"-config", path})
	assert.ErrorContains(t, err, "parse config")
}

func TestLoadFileRejectsWrappingKeyCode(t *testing.T) {
	path := writeFile(t, "keys.yaml", `
buttons:
  - pin: GPIO17
    key_code: -1
`)
	_, err := LoadFromArgs([]string{"-config", path})
	assert.ErrorContains(t, err, "invalid key code -1")

	path = writeFile(t, "mode.json", `{"mode_key": 65547}`)
	_, err = LoadFromArgs([]string{"-config", path})
	assert.ErrorContains(t, err, "invalid mode key 65547")
}

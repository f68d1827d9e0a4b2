package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	SensorReal       = "real"
	SensorSimulation = "simulation"

	FailureHalt     = "halt"
	FailureContinue = "continue"

	// KeyCode0 is the input code of the first numeric key.
	KeyCode0   = 11
	MaxKeyCode = 0xffff

	DefaultDebounceMs = 20

	// MaxResolution is the widest conversion the ADS1115 produces.
	MaxResolution = 16
)

type ThermocoupleConfig struct {
	SPIPort string `json:"spi_port" yaml:"spi_port"`
}

type ADCConfig struct {
	I2CBus     string `json:"i2c_bus" yaml:"i2c_bus"`
	I2CAddress int    `json:"i2c_address" yaml:"i2c_address"`
	Channel    int    `json:"channel" yaml:"channel"`
	Gain       string `json:"gain" yaml:"gain"`
	Resolution int    `json:"resolution" yaml:"resolution"`
	SampleRate int    `json:"sample_rate" yaml:"sample_rate"`
}

// DisplayConfig selects the bus of the SSD1306, which sits at 0x3C.
type DisplayConfig struct {
	I2CBus string `json:"i2c_bus" yaml:"i2c_bus"`
}

// ButtonConfig describes a push button. A zero DebounceMs takes
// DefaultDebounceMs.
type ButtonConfig struct {
	Pin        string `json:"pin" yaml:"pin"`
	KeyCode    int    `json:"key_code" yaml:"key_code"`
	ActiveLow  bool   `json:"active_low" yaml:"active_low"`
	DebounceMs int    `json:"debounce_ms" yaml:"debounce_ms"`
}

type OutputConfig struct {
	Type    string         `json:"type" yaml:"type"`
	Display *DisplayConfig `json:"display,omitempty" yaml:"display,omitempty"`
}

type Config struct {
	SensorType          string               `json:"sensor_type" yaml:"sensor_type"`
	PeriodMs            int                  `json:"period_ms" yaml:"period_ms"`
	ThermocoupleFailure string               `json:"thermocouple_failure" yaml:"thermocouple_failure"`
	Thermocouples       []ThermocoupleConfig `json:"thermocouples" yaml:"thermocouples"`
	ADC                 ADCConfig            `json:"adc" yaml:"adc"`
	Buttons             []ButtonConfig       `json:"buttons" yaml:"buttons"`
	ModeKey             int                  `json:"mode_key" yaml:"mode_key"`
	Outputs             []OutputConfig       `json:"outputs" yaml:"outputs"`
}

func DefaultConfig() Config {
	return Config{
		SensorType:          SensorReal,
		PeriodMs:            1000,
		ThermocoupleFailure: FailureHalt,
		Thermocouples:       []ThermocoupleConfig{{SPIPort: "SPI0.0"}, {SPIPort: "SPI0.1"}},
		ADC: ADCConfig{
			I2CBus:     "1",
			I2CAddress: 0x48,
			Channel:    0,
			Gain:       "1/2",
			Resolution: 15,
			SampleRate: 128,
		},
		Buttons: []ButtonConfig{{Pin: "GPIO17", KeyCode: KeyCode0, ActiveLow: true, DebounceMs: DefaultDebounceMs}},
		ModeKey: KeyCode0,
		Outputs: []OutputConfig{{Type: "console"}},
	}
}

// LoadFromFlags loads configuration from a JSON or YAML file (optional) and
// command line flags. Flags override values present in the file.
func LoadFromFlags() (Config, error) {
	return LoadFromArgs(os.Args[1:])
}

func LoadFromArgs(args []string) (Config, error) {
	fs := flag.NewFlagSet("thermo-pressure-daq", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to JSON or YAML config file")
	flagSensorType := fs.String("sensor-type", "", "sensor type: real|simulation")
	flagPeriod := fs.Int("period-ms", -1, "Sampling period in ms")
	flagFailure := fs.String("thermocouple-failure", "", "thermocouple read failure policy: halt|continue")
	flagSPIPorts := fs.String("spi-ports", "", "Comma-separated thermocouple SPI ports e.g. SPI0.0,SPI0.1")
	flagI2CBus := fs.String("adc-i2c-bus", "", "ADC I2C bus (e.g., '1' -> /dev/i2c-1)")
	flagI2CAddStr := fs.String("adc-i2c-address", "", "ADC I2C address (decimal or 0x hex)")
	flagChannel := fs.Int("adc-channel", -1, "ADC input channel of the pressure sensor")
	flagGain := fs.String("adc-gain", "", "ADC gain e.g. 1/2, 1, 2")
	flagOutputs := fs.String("outputs", "", "Comma-separated outputs (console,display)")
	flagModeKey := fs.Int("mode-key", -1, "Input key code that cycles the display mode")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()

	if *cfgPath != "" {
		if err := loadFile(*cfgPath, &cfg); err != nil {
			return cfg, err
		}
		for i := range cfg.Buttons {
			if cfg.Buttons[i].DebounceMs == 0 {
				cfg.Buttons[i].DebounceMs = DefaultDebounceMs
			}
		}
	}

	if *flagSensorType != "" {
		cfg.SensorType = *flagSensorType
	}
	if *flagPeriod != -1 {
		cfg.PeriodMs = *flagPeriod
	}
	if *flagFailure != "" {
		cfg.ThermocoupleFailure = *flagFailure
	}
	if *flagSPIPorts != "" {
		parts := parseCSV(*flagSPIPorts)
		tcs := make([]ThermocoupleConfig, 0, len(parts))
		for _, p := range parts {
			tcs = append(tcs, ThermocoupleConfig{SPIPort: p})
		}
		cfg.Thermocouples = tcs
	}
	if *flagI2CBus != "" {
		cfg.ADC.I2CBus = *flagI2CBus
	}
	if *flagI2CAddStr != "" {
		v, err := parseIntOrHex(*flagI2CAddStr)
		if err != nil {
			return cfg, fmt.Errorf("adc-i2c-address: %w", err)
		}
		cfg.ADC.I2CAddress = v
	}
	if *flagChannel != -1 {
		cfg.ADC.Channel = *flagChannel
	}
	if *flagGain != "" {
		cfg.ADC.Gain = *flagGain
	}
	if *flagOutputs != "" {
		parts := parseCSV(*flagOutputs)
		outs := make([]OutputConfig, 0, len(parts))
		for _, p := range parts {
			outs = append(outs, OutputConfig{Type: strings.ToLower(p)})
		}
		cfg.Outputs = outs
	}
	if *flagModeKey != -1 {
		cfg.ModeKey = *flagModeKey
	}

	return cfg, cfg.Validate()
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, cfg)
	default:
		err = json.Unmarshal(b, cfg)
	}
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	switch c.SensorType {
	case SensorReal, SensorSimulation:
	default:
		return fmt.Errorf("invalid sensor type %q", c.SensorType)
	}
	switch c.ThermocoupleFailure {
	case FailureHalt, FailureContinue:
	default:
		return fmt.Errorf("invalid thermocouple failure policy %q", c.ThermocoupleFailure)
	}
	if c.PeriodMs <= 0 {
		return errors.New("period-ms must be > 0")
	}
	if len(c.Thermocouples) == 0 {
		return errors.New("at least one thermocouple is required")
	}
	if c.ADC.Channel < 0 || c.ADC.Channel > 3 {
		return fmt.Errorf("invalid adc channel %d", c.ADC.Channel)
	}
	if c.ADC.Resolution <= 0 || c.ADC.Resolution > MaxResolution {
		return fmt.Errorf("invalid adc resolution %d", c.ADC.Resolution)
	}
	if c.ADC.SampleRate <= 0 {
		return errors.New("adc sample-rate must be > 0")
	}
	if c.ModeKey < 0 || c.ModeKey > MaxKeyCode {
		return fmt.Errorf("invalid mode key %d", c.ModeKey)
	}
	for _, b := range c.Buttons {
		if b.KeyCode < 0 || b.KeyCode > MaxKeyCode {
			return fmt.Errorf("button %s: invalid key code %d", b.Pin, b.KeyCode)
		}
		if b.DebounceMs < 0 {
			return fmt.Errorf("button %s: debounce-ms must be >= 0", b.Pin)
		}
	}
	return nil
}

func parseIntOrHex(s string) (int, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseInt(s[2:], 16, 0)
		return int(v), err
	}
	v, err := strconv.Atoi(s)
	return v, err
}

func parseCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

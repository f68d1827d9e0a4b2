package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/ericogr/thermo-pressure-daq/pkg/acquire"
	"github.com/ericogr/thermo-pressure-daq/pkg/config"
	"github.com/ericogr/thermo-pressure-daq/pkg/input"
	"github.com/ericogr/thermo-pressure-daq/pkg/mode"
	"github.com/ericogr/thermo-pressure-daq/pkg/output"
	"github.com/ericogr/thermo-pressure-daq/pkg/output/console"
	"github.com/ericogr/thermo-pressure-daq/pkg/output/display"
	"github.com/ericogr/thermo-pressure-daq/pkg/sensor"
)

type displayOpener func(config.DisplayConfig) (*display.DisplayOutput, error)

// devices are the hardware collaborators, opened but not yet checked for
// readiness.
type devices struct {
	thermocouples []sensor.Thermocouple
	adc           sensor.ADC
	buttons       []*input.Button
	keys          io.Reader
	openDisplay   displayOpener
	closers       []io.Closer
}

func (d *devices) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			log.Printf("close: %v", err)
		}
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	fmt.Println("starting...")

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Printf("config: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var devs *devices
	if cfg.SensorType == config.SensorSimulation {
		devs = simulatedDevices(cfg)
	} else {
		devs, err = openDevices(cfg)
		if err != nil {
			log.Printf("init: %v", err)
			return 1
		}
	}
	defer devs.Close()

	return start(ctx, cfg, devs)
}

func openDevices(cfg config.Config) (*devices, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	d := &devices{}

	for i, tc := range cfg.Thermocouples {
		port, err := spireg.Open(tc.SPIPort)
		if err != nil {
			d.Close()
			return nil, &sensor.InitError{Device: fmt.Sprintf("sensor %d", i), Err: fmt.Errorf("open spi: %w", err)}
		}
		d.closers = append(d.closers, port)
		c, err := port.Connect(sensor.MAX6675MaxSpeed, sensor.MAX6675Mode, 8)
		if err != nil {
			d.Close()
			return nil, &sensor.InitError{Device: fmt.Sprintf("sensor %d", i), Err: fmt.Errorf("connect spi: %w", err)}
		}
		d.thermocouples = append(d.thermocouples, sensor.NewMAX6675(c))
	}

	bus, err := i2creg.Open(cfg.ADC.I2CBus)
	if err != nil {
		d.Close()
		return nil, &sensor.InitError{Device: "adc", Err: fmt.Errorf("open i2c: %w", err)}
	}
	d.closers = append(d.closers, bus)
	d.adc = sensor.NewADS1115(bus, uint16(cfg.ADC.I2CAddress), cfg.ADC.SampleRate)

	for _, bc := range cfg.Buttons {
		pin := gpioreg.ByName(bc.Pin)
		if pin == nil {
			d.Close()
			return nil, &sensor.InitError{Device: "button " + bc.Pin, Err: sensor.ErrDeviceNotReady}
		}
		b, err := input.NewButton(pin, uint16(bc.KeyCode), bc.ActiveLow, time.Duration(bc.DebounceMs)*time.Millisecond)
		if err != nil {
			d.Close()
			return nil, &sensor.InitError{Device: "button " + bc.Pin, Err: err}
		}
		d.buttons = append(d.buttons, b)
	}

	d.openDisplay = func(dc config.DisplayConfig) (*display.DisplayOutput, error) {
		b, err := i2creg.Open(dc.I2CBus)
		if err != nil {
			return nil, fmt.Errorf("open i2c: %w", err)
		}
		d.closers = append(d.closers, b)
		return display.NewSSD1306(b)
	}
	return d, nil
}

// simulatedDevices needs no hardware. Each line on stdin presses the mode key.
func simulatedDevices(cfg config.Config) *devices {
	d := &devices{adc: sensor.NewFakeADC(2048), keys: os.Stdin}
	for i := range cfg.Thermocouples {
		d.thermocouples = append(d.thermocouples, sensor.NewFakeThermocouple(22.0+2*float64(i)))
	}
	return d
}

// start checks readiness once, wires the loop and blocks until it stops.
// It returns the process exit code.
func start(ctx context.Context, cfg config.Config, devs *devices) int {
	if err := sensor.CheckThermocouples(devs.thermocouples); err != nil {
		log.Printf("%v", err)
		return 1
	}
	chCfg, err := sensor.ChannelConfigFrom(cfg.ADC)
	if err != nil {
		log.Printf("%v", err)
		return 1
	}
	reader, err := sensor.NewChannelReader(devs.adc, chCfg)
	if err != nil {
		log.Printf("%v", err)
		return 1
	}
	outputs, err := initOutputs(cfg, devs.openDisplay)
	if err != nil {
		log.Printf("%v", err)
		return 1
	}
	defer func() {
		for _, o := range outputs {
			_ = o.Close()
		}
	}()

	selector := mode.NewSelector(uint16(cfg.ModeKey))
	for _, b := range devs.buttons {
		go b.Watch(ctx, selector)
	}
	if devs.keys != nil {
		go func() {
			if err := input.WatchLines(ctx, devs.keys, uint16(cfg.ModeKey), selector); err != nil {
				log.Printf("keys: %v", err)
			}
		}()
	}

	policy := acquire.Halt
	if cfg.ThermocoupleFailure == config.FailureContinue {
		policy = acquire.Continue
	}
	loop := &acquire.Loop{
		Thermocouples: devs.thermocouples,
		Pressure:      reader,
		Mode:          selector,
		Outputs:       outputs,
		Period:        time.Duration(cfg.PeriodMs) * time.Millisecond,
		Policy:        policy,
	}
	if err := loop.Run(ctx); err != nil {
		log.Printf("%v", err)
		if !errors.Is(err, acquire.ErrHalted) {
			return 1
		}
	}
	return 0
}

// initOutputs creates the configured reporting sinks. A display that fails to
// open is not ready and fatal; one that cannot be cleared only logs a warning.
func initOutputs(cfg config.Config, openDisplay displayOpener) ([]output.Output, error) {
	entries := make([]output.Output, 0, len(cfg.Outputs))
	for _, oc := range cfg.Outputs {
		switch strings.ToLower(oc.Type) {
		case "console":
			entries = append(entries, console.NewConsole())
		case "display":
			if openDisplay == nil {
				return nil, &sensor.InitError{Device: "display", Err: sensor.ErrDeviceNotReady}
			}
			dc := config.DisplayConfig{I2CBus: cfg.ADC.I2CBus}
			if oc.Display != nil {
				dc = *oc.Display
			}
			d, err := openDisplay(dc)
			if err != nil {
				return nil, &sensor.InitError{Device: "display", Err: err}
			}
			if err := d.Clear(); err != nil {
				log.Printf("warning: display clear failed: %v", err)
			}
			entries = append(entries, d)
		default:
			return nil, fmt.Errorf("unknown output type %q", oc.Type)
		}
	}
	return entries, nil
}

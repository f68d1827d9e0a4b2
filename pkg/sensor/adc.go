package sensor

import (
	"fmt"
	"log"
	"math"
	"strings"
	"syscall"
)

// Gain is the amplification applied in front of the ADC.
type Gain int

const (
	Gain1_6 Gain = iota + 1
	Gain1_5
	Gain1_4
	Gain1_3
	Gain2_5
	Gain1_2
	Gain2_3
	Gain1
	Gain2
	Gain3
	Gain4
	Gain8
	Gain16
	Gain32
	Gain64
	Gain128
)

// gainRatios holds the multiplier and divisor that undo each gain.
var gainRatios = map[Gain][2]int32{
	Gain1_6: {6, 1},
	Gain1_5: {5, 1},
	Gain1_4: {4, 1},
	Gain1_3: {3, 1},
	Gain2_5: {5, 2},
	Gain1_2: {2, 1},
	Gain2_3: {3, 2},
	Gain1:   {1, 1},
	Gain2:   {1, 2},
	Gain3:   {1, 3},
	Gain4:   {1, 4},
	Gain8:   {1, 8},
	Gain16:  {1, 16},
	Gain32:  {1, 32},
	Gain64:  {1, 64},
	Gain128: {1, 128},
}

var gainNames = map[string]Gain{
	"1/6": Gain1_6, "1/5": Gain1_5, "1/4": Gain1_4, "1/3": Gain1_3,
	"2/5": Gain2_5, "1/2": Gain1_2, "2/3": Gain2_3, "1": Gain1,
	"2": Gain2, "3": Gain3, "4": Gain4, "8": Gain8,
	"16": Gain16, "32": Gain32, "64": Gain64, "128": Gain128,
}

func ParseGain(s string) (Gain, error) {
	g, ok := gainNames[strings.TrimSpace(s)]
	if !ok {
		return 0, fmt.Errorf("invalid gain %q", s)
	}
	return g, nil
}

func (g Gain) String() string {
	for name, v := range gainNames {
		if v == g {
			return name
		}
	}
	return fmt.Sprintf("Gain(%d)", int(g))
}

// RawToMillivolts scales a raw conversion result to millivolts: raw*ref,
// undo the gain, shift right by resolution. The product is formed in 64 bits
// and a result that does not fit in int32 fails with ERANGE.
func RawToMillivolts(refMV int32, gain Gain, resolution int, raw int32) (int32, error) {
	ratio, ok := gainRatios[gain]
	if !ok {
		return 0, fmt.Errorf("gain %v: %w", gain, syscall.EINVAL)
	}
	if resolution < 0 || resolution > 31 {
		return 0, fmt.Errorf("resolution %d: %w", resolution, syscall.EINVAL)
	}
	mv := int64(raw) * int64(refMV)
	mv = mv * int64(ratio[0]) / int64(ratio[1])
	mv >>= resolution
	if mv > math.MaxInt32 || mv < math.MinInt32 {
		return 0, fmt.Errorf("%d mV: %w", mv, syscall.ERANGE)
	}
	return int32(mv), nil
}

type ChannelConfig struct {
	Channel    int
	Gain       Gain
	Resolution int
}

// ChannelReader performs single-shot millivolt reads of one ADC channel.
type ChannelReader struct {
	adc ADC
	cfg ChannelConfig
}

// NewChannelReader checks the device once and configures the channel.
func NewChannelReader(adc ADC, cfg ChannelConfig) (*ChannelReader, error) {
	if !adc.IsReady() {
		return nil, &InitError{Device: "adc", Err: ErrDeviceNotReady}
	}
	if err := adc.ConfigureChannel(cfg); err != nil {
		return nil, &InitError{Device: fmt.Sprintf("adc channel %d", cfg.Channel), Err: fmt.Errorf("%w: %w", ErrChannelSetup, err)}
	}
	return &ChannelReader{adc: adc, cfg: cfg}, nil
}

func (r *ChannelReader) Channel() int { return r.cfg.Channel }

func (r *ChannelReader) ReferenceVoltage() int32 { return r.adc.ReferenceVoltage() }

func (r *ChannelReader) ReadMillivolts() (int32, error) {
	raw, err := r.adc.Read(Sequence{Channel: r.cfg.Channel, Resolution: r.cfg.Resolution})
	if err != nil {
		return 0, newReadError(KindPressure, r.cfg.Channel, ErrConversionFailed, err)
	}
	mv, err := RawToMillivolts(r.adc.ReferenceVoltage(), r.cfg.Gain, r.cfg.Resolution, raw)
	if err != nil {
		return 0, newReadError(KindPressure, r.cfg.Channel, ErrScalingFailed, err)
	}
	log.Printf("ADC reading[%d]: %d mV", r.cfg.Channel, mv)
	return mv, nil
}

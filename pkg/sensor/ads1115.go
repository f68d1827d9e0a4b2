package sensor

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
)

const (
	pointerConv   = 0x00
	pointerConfig = 0x01

	// ads1115RefMV is the internal reference; the PGA setting scales it.
	ads1115RefMV = 2048
)

// pgaBits maps the supported gains to the ADS1115 PGA field.
var pgaBits = map[Gain]byte{
	Gain1_3: 0x0, // ±6.144V
	Gain1_2: 0x1, // ±4.096V
	Gain1:   0x2, // ±2.048V
	Gain2:   0x3, // ±1.024V
	Gain4:   0x4, // ±0.512V
	Gain8:   0x5, // ±0.256V
}

type ADS1115 struct {
	dev        *i2c.Dev
	sampleRate int
	mu         sync.Mutex
	gains      map[int]Gain
}

func NewADS1115(bus i2c.Bus, addr uint16, sampleRate int) *ADS1115 {
	return &ADS1115{dev: &i2c.Dev{Addr: addr, Bus: bus}, sampleRate: sampleRate, gains: make(map[int]Gain)}
}

// IsReady probes the config register.
func (s *ADS1115) IsReady() bool {
	buf := make([]byte, 2)
	return s.dev.Tx([]byte{pointerConfig}, buf) == nil
}

func (s *ADS1115) ConfigureChannel(cfg ChannelConfig) error {
	if _, _, err := s.configForChannel(cfg.Channel, cfg.Gain); err != nil {
		return err
	}
	s.mu.Lock()
	s.gains[cfg.Channel] = cfg.Gain
	s.mu.Unlock()
	return nil
}

func (s *ADS1115) ReferenceVoltage() int32 { return ads1115RefMV }

func (s *ADS1115) Read(seq Sequence) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gain, ok := s.gains[seq.Channel]
	if !ok {
		return 0, fmt.Errorf("channel %d not configured", seq.Channel)
	}
	msb, lsb, err := s.configForChannel(seq.Channel, gain)
	if err != nil {
		return 0, err
	}
	// write config, this starts a single conversion
	if err := s.dev.Tx([]byte{pointerConfig, msb, lsb}, nil); err != nil {
		return 0, fmt.Errorf("write config: %w", err)
	}
	delayMs := int(1000.0/float64(s.sampleRate)) + 2
	time.Sleep(time.Duration(delayMs) * time.Millisecond)
	readBuf := make([]byte, 2)
	if err := s.dev.Tx([]byte{pointerConv}, readBuf); err != nil {
		return 0, fmt.Errorf("read conv: %w", err)
	}
	raw := int16(readBuf[0])<<8 | int16(readBuf[1])
	return int32(raw), nil
}

func (s *ADS1115) configForChannel(channel int, gain Gain) (byte, byte, error) {
	var mux byte
	switch channel {
	case 0:
		mux = 0x4
	case 1:
		mux = 0x5
	case 2:
		mux = 0x6
	case 3:
		mux = 0x7
	default:
		return 0, 0, fmt.Errorf("invalid channel %d", channel)
	}
	pga, ok := pgaBits[gain]
	if !ok {
		return 0, 0, fmt.Errorf("unsupported gain %v", gain)
	}
	var dr byte
	switch s.sampleRate {
	case 8:
		dr = 0x0
	case 16:
		dr = 0x1
	case 32:
		dr = 0x2
	case 64:
		dr = 0x3
	case 128:
		dr = 0x4
	case 250:
		dr = 0x5
	case 475:
		dr = 0x6
	case 860:
		dr = 0x7
	default:
		dr = 0x4
	}
	var config uint16 = 0x8000 // OS = 1 (start single conversion)
	config |= uint16(mux) << 12
	config |= uint16(pga) << 9
	config |= 1 << 8 // single-shot mode
	config |= uint16(dr) << 5
	// comparator disabled (bits 1:0 = 11)
	config |= 0x3
	return byte(config >> 8), byte(config & 0xFF), nil
}

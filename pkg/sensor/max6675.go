package sensor

import (
	"fmt"
	"sync"
	"syscall"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const (
	// MAX6675MaxSpeed is the maximum SPI clock of the MAX6675.
	MAX6675MaxSpeed = 4300 * physic.KiloHertz
	MAX6675Mode     = spi.Mode0

	max6675OpenInput = 1 << 2
	max6675DeviceID  = 1 << 1
	max6675Step      = 250 * physic.MilliKelvin
)

// MAX6675 is a K-type thermocouple converter read over a 16 bit SPI frame.
type MAX6675 struct {
	c      conn.Conn
	mu     sync.Mutex
	sample physic.Temperature
	valid  bool
}

func NewMAX6675(c conn.Conn) *MAX6675 {
	return &MAX6675{c: c}
}

func (m *MAX6675) readFrame() (uint16, error) {
	var w, r [2]byte
	if err := m.c.Tx(w[:], r[:]); err != nil {
		return 0, err
	}
	return uint16(r[0])<<8 | uint16(r[1]), nil
}

// IsReady performs a read and checks the device id bit, which always reads 0.
func (m *MAX6675) IsReady() bool {
	frame, err := m.readFrame()
	return err == nil && frame&max6675DeviceID == 0
}

func (m *MAX6675) Fetch() error {
	frame, err := m.readFrame()
	if err != nil {
		return fmt.Errorf("max6675: %w", err)
	}
	if frame&max6675OpenInput != 0 {
		return fmt.Errorf("max6675: thermocouple open circuit: %w", syscall.EIO)
	}
	m.mu.Lock()
	m.sample = bitsToTemperature(frame)
	m.valid = true
	m.mu.Unlock()
	return nil
}

func (m *MAX6675) Value() (physic.Temperature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.valid {
		return 0, fmt.Errorf("max6675: no sample: %w", syscall.ENODATA)
	}
	return m.sample, nil
}

// bitsToTemperature decodes bits 14..3, 0.25°C per count from 0°C.
func bitsToTemperature(frame uint16) physic.Temperature {
	counts := physic.Temperature((frame >> 3) & 0x0FFF)
	return physic.ZeroCelsius + counts*max6675Step
}

package sensor

import (
	"fmt"
	"math/rand"
	"sync"
	"syscall"

	"periph.io/x/conn/v3/physic"
)

// FakeThermocouple simulates a thermocouple around a base temperature.
// Queued errors are returned by the following Fetch calls.
type FakeThermocouple struct {
	NotReady bool
	Base     physic.Temperature
	Jitter   physic.Temperature

	mu     sync.Mutex
	sample physic.Temperature
	valid  bool
	errs   []error
}

func NewFakeThermocouple(celsius float64) *FakeThermocouple {
	return &FakeThermocouple{
		Base:   physic.ZeroCelsius + physic.Temperature(celsius*float64(physic.Celsius)),
		Jitter: 500 * physic.MilliKelvin,
	}
}

func (f *FakeThermocouple) IsReady() bool { return !f.NotReady }

// FailNext queues err for the next Fetch.
func (f *FakeThermocouple) FailNext(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, err)
}

func (f *FakeThermocouple) Fetch() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	f.sample = f.Base
	if f.Jitter > 0 {
		f.sample += physic.Temperature(rand.Int63n(int64(2*f.Jitter))) - f.Jitter
	}
	f.valid = true
	return nil
}

func (f *FakeThermocouple) Value() (physic.Temperature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.valid {
		return 0, fmt.Errorf("fake thermocouple: no sample: %w", syscall.ENODATA)
	}
	return f.sample, nil
}

// FakeADC returns Raw when set, otherwise random counts in the positive range.
type FakeADC struct {
	NotReady  bool
	Reference int32
	Raw       *int32
	SetupErr  error

	mu         sync.Mutex
	configured map[int]ChannelConfig
	errs       []error
}

func NewFakeADC(refMV int32) *FakeADC {
	return &FakeADC{Reference: refMV, configured: make(map[int]ChannelConfig)}
}

func (f *FakeADC) IsReady() bool { return !f.NotReady }

func (f *FakeADC) ConfigureChannel(cfg ChannelConfig) error {
	if f.SetupErr != nil {
		return f.SetupErr
	}
	f.mu.Lock()
	f.configured[cfg.Channel] = cfg
	f.mu.Unlock()
	return nil
}

func (f *FakeADC) FailNext(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, err)
}

func (f *FakeADC) SetRaw(raw int32) {
	f.mu.Lock()
	f.Raw = &raw
	f.mu.Unlock()
}

func (f *FakeADC) Read(seq Sequence) (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return 0, err
	}
	if _, ok := f.configured[seq.Channel]; !ok {
		return 0, fmt.Errorf("fake adc: channel %d: %w", seq.Channel, syscall.EINVAL)
	}
	if f.Raw != nil {
		return *f.Raw, nil
	}
	return int32(rand.Intn(1 << seq.Resolution)), nil
}

func (f *FakeADC) ReferenceVoltage() int32 { return f.Reference }

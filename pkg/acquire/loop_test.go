package acquire

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericogr/thermo-pressure-daq/pkg/input"
	"github.com/ericogr/thermo-pressure-daq/pkg/mode"
	"github.com/ericogr/thermo-pressure-daq/pkg/output"
	"github.com/ericogr/thermo-pressure-daq/pkg/output/console"
	"github.com/ericogr/thermo-pressure-daq/pkg/sensor"
)

type memOutput struct {
	mu      sync.Mutex
	reports []output.Report
	err     error
}

func (m *memOutput) Publish(r output.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
	return m.err
}

func (m *memOutput) Close() error { return nil }

func (m *memOutput) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reports)
}

type rig struct {
	tc0, tc1 *sensor.FakeThermocouple
	adc      *sensor.FakeADC
	out      *memOutput
	console  *bytes.Buffer
	selector *mode.Selector
	loop     *Loop
}

func newRig(t *testing.T, policy FailurePolicy) *rig {
	t.Helper()
	r := &rig{
		tc0:      sensor.NewFakeThermocouple(23.5),
		tc1:      sensor.NewFakeThermocouple(25),
		adc:      sensor.NewFakeADC(5000),
		out:      &memOutput{},
		console:  &bytes.Buffer{},
		selector: mode.NewSelector(11),
	}
	r.tc0.Jitter = 0
	r.tc1.Jitter = 0
	r.adc.SetRaw(2048)

	reader, err := sensor.NewChannelReader(r.adc, sensor.ChannelConfig{Channel: 0, Gain: sensor.Gain1, Resolution: 12})
	require.NoError(t, err)

	r.loop = &Loop{
		Thermocouples: []sensor.Thermocouple{r.tc0, r.tc1},
		Pressure:      reader,
		Mode:          r.selector,
		Outputs:       []output.Output{console.NewConsoleWriter(r.console), r.out},
		Period:        time.Millisecond,
		Policy:        policy,
	}
	return r
}

func TestCycleReportsAllChannels(t *testing.T) {
	r := newRig(t, Halt)

	report, err := r.loop.Cycle()
	require.NoError(t, err)

	require.Len(t, report.Temperatures, 2)
	assert.InDelta(t, 23.5, report.Temperatures[0].Celsius, 1e-9)
	assert.InDelta(t, 25.0, report.Temperatures[1].Celsius, 1e-9)
	require.NotNil(t, report.Pressure)
	assert.True(t, report.Pressure.Available)
	assert.Equal(t, int32(2500), report.Pressure.Millivolts)
	assert.Equal(t, -24.0, report.Pressure.KPa)
	assert.Equal(t, 1.25, report.Pressure.ErrorKPa)

	assert.Equal(t, "Temperature0: 23.50 C\nTemperature1: 25.00 C\n-24.00 +- 1.25 kPa\n", r.console.String())
	assert.Equal(t, 1, r.out.count())
}

func TestCyclePressureFailureIsRecoverable(t *testing.T) {
	r := newRig(t, Halt)
	r.adc.FailNext(syscall.EIO)

	report, err := r.loop.Cycle()
	require.NoError(t, err)
	require.Len(t, report.Temperatures, 2)
	require.NotNil(t, report.Pressure)
	assert.False(t, report.Pressure.Available)
	assert.Equal(t, -5, report.Pressure.Code)
	assert.Zero(t, report.Pressure.KPa)
	assert.Contains(t, r.console.String(), "Pressure: unavailable (-5)\n")

	// the next cycle does not reuse anything from the failed one
	report, err = r.loop.Cycle()
	require.NoError(t, err)
	assert.True(t, report.Pressure.Available)
}

func TestCycleThermocoupleFailureHalts(t *testing.T) {
	r := newRig(t, Halt)
	r.tc1.FailNext(syscall.EIO)
	r.adc.FailNext(syscall.EIO)

	report, err := r.loop.Cycle()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHalted)
	assert.ErrorIs(t, err, syscall.EIO)
	assert.Equal(t, -5, sensor.Code(err))

	// channel 0 was reported before the failure was handled
	require.Len(t, report.Temperatures, 1)
	assert.Equal(t, 0, report.Temperatures[0].Channel)
	assert.Nil(t, report.Pressure)
	assert.Equal(t, "Temperature0: 23.50 C\n", r.console.String())
	assert.Equal(t, 1, r.out.count())
}

func TestCycleThermocoupleFailureContinue(t *testing.T) {
	r := newRig(t, Continue)
	r.tc0.FailNext(syscall.EIO)

	report, err := r.loop.Cycle()
	require.NoError(t, err)
	require.Len(t, report.Temperatures, 2)
	assert.False(t, report.Temperatures[0].Available)
	assert.Equal(t, -5, report.Temperatures[0].Code)
	assert.True(t, report.Temperatures[1].Available)
	assert.True(t, report.Pressure.Available)
	assert.Equal(t, "Temperature0: unavailable (-5)\nTemperature1: 25.00 C\n-24.00 +- 1.25 kPa\n", r.console.String())
}

func TestCycleReportsCurrentMode(t *testing.T) {
	r := newRig(t, Halt)
	r.selector.HandleEvent(input.Event{Key: 11, Release: true})
	r.selector.HandleEvent(input.Event{Key: 11, Release: true})

	report, err := r.loop.Cycle()
	require.NoError(t, err)
	assert.Equal(t, 2, report.Mode)
}

func TestCycleOutputErrorDoesNotStopOthers(t *testing.T) {
	r := newRig(t, Halt)
	failing := &memOutput{err: errors.New("display gone")}
	r.loop.Outputs = append([]output.Output{failing}, r.loop.Outputs...)

	_, err := r.loop.Cycle()
	require.NoError(t, err)
	assert.Equal(t, 1, failing.count())
	assert.Equal(t, 1, r.out.count())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	r := newRig(t, Halt)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.loop.Run(ctx) }()

	require.Eventually(t, func() bool { return r.out.count() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunReturnsOnHalt(t *testing.T) {
	r := newRig(t, Halt)
	r.tc0.FailNext(syscall.ETIMEDOUT)

	err := r.loop.Run(context.Background())
	assert.ErrorIs(t, err, ErrHalted)
	assert.Equal(t, -int(syscall.ETIMEDOUT), sensor.Code(err))
	assert.Equal(t, 1, r.out.count())
}

package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestConfigForChannelBytes(t *testing.T) {
	s := &ADS1115{sampleRate: 128}

	// channel 0, ±4.096V, 128SPS
	msb, lsb, err := s.configForChannel(0, Gain1_2)
	require.NoError(t, err)
	assert.Equal(t, [2]byte{0xC3, 0x83}, [2]byte{msb, lsb})

	msb, lsb, err = s.configForChannel(1, Gain1_2)
	require.NoError(t, err)
	assert.Equal(t, [2]byte{0xD3, 0x83}, [2]byte{msb, lsb})

	// ±2.048V
	msb, lsb, err = s.configForChannel(0, Gain1)
	require.NoError(t, err)
	assert.Equal(t, [2]byte{0xC5, 0x83}, [2]byte{msb, lsb})

	s.sampleRate = 8
	msb, lsb, err = s.configForChannel(0, Gain1_2)
	require.NoError(t, err)
	assert.Equal(t, [2]byte{0xC3, 0x03}, [2]byte{msb, lsb})

	_, _, err = s.configForChannel(9, Gain1_2)
	assert.Error(t, err)

	_, _, err = s.configForChannel(0, Gain3)
	assert.Error(t, err)
}

func TestADS1115Read(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x48, W: []byte{pointerConfig}, R: []byte{0x85, 0x83}},
			{Addr: 0x48, W: []byte{pointerConfig, 0xC3, 0x83}},
			{Addr: 0x48, W: []byte{pointerConv}, R: []byte{0x40, 0x00}},
		},
	}
	adc := NewADS1115(bus, 0x48, 128)

	r, err := NewChannelReader(adc, ChannelConfig{Channel: 0, Gain: Gain1_2, Resolution: 15})
	require.NoError(t, err)

	mv, err := r.ReadMillivolts()
	require.NoError(t, err)
	assert.Equal(t, int32(2048), mv)
	assert.NoError(t, bus.Close())
}

func TestADS1115ReadNegative(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x48, W: []byte{pointerConfig, 0xD5, 0x83}},
			{Addr: 0x48, W: []byte{pointerConv}, R: []byte{0xC0, 0x00}},
		},
	}
	adc := NewADS1115(bus, 0x48, 128)
	require.NoError(t, adc.ConfigureChannel(ChannelConfig{Channel: 1, Gain: Gain1}))

	raw, err := adc.Read(Sequence{Channel: 1, Resolution: 15})
	require.NoError(t, err)
	assert.Equal(t, int32(-16384), raw)
	assert.NoError(t, bus.Close())
}

func TestADS1115NotReady(t *testing.T) {
	bus := &i2ctest.Playback{DontPanic: true}
	adc := NewADS1115(bus, 0x48, 128)
	assert.False(t, adc.IsReady())

	_, err := NewChannelReader(adc, ChannelConfig{Channel: 0, Gain: Gain1, Resolution: 15})
	assert.ErrorIs(t, err, ErrDeviceNotReady)
}

func TestADS1115ReadUnconfigured(t *testing.T) {
	adc := NewADS1115(&i2ctest.Playback{}, 0x48, 128)
	_, err := adc.Read(Sequence{Channel: 2})
	assert.Error(t, err)
}

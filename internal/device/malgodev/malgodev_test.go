package malgodev

import (
	"encoding/binary"
	"math"
	"runtime"
	"testing"

	"github.com/gen2brain/malgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func s16le(samples ...int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

func TestApplyGainS16(t *testing.T) {
	t.Run("unity gain is identity", func(t *testing.T) {
		buf := s16le(100, -100, math.MaxInt16, math.MinInt16)
		want := append([]byte(nil), buf...)
		applyGainS16(buf, 1.0)
		assert.Equal(t, want, buf)
	})

	t.Run("scales samples", func(t *testing.T) {
		buf := s16le(100, -200)
		applyGainS16(buf, 2.0)
		assert.Equal(t, s16le(200, -400), buf)
	})

	t.Run("clamps at full scale", func(t *testing.T) {
		buf := s16le(30000, -30000)
		applyGainS16(buf, 4.0)
		assert.Equal(t, s16le(math.MaxInt16, math.MinInt16), buf)
	})

	t.Run("ignores trailing odd byte", func(t *testing.T) {
		buf := []byte{100, 0, 0x7F}
		applyGainS16(buf, 2.0)
		assert.Equal(t, []byte{200, 0, 0x7F}, buf)
	})
}

func TestHexToASCII(t *testing.T) {
	decoded, err := hexToASCII("73797364656661756c74")
	require.NoError(t, err)
	assert.Equal(t, "sysdefault", decoded)

	_, err = hexToASCII("zz")
	assert.Error(t, err)
}

func TestMatchesDeviceSetting(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("windows resolves sysdefault to the backend default device")
	}
	var info malgo.DeviceInfo
	assert.True(t, matchesDeviceSetting("hw:1,0", info, "hw:1,0"))
	assert.False(t, matchesDeviceSetting("hw:1,0", info, "hw:2,0"))
}

func TestSetGainRange(t *testing.T) {
	d := &Device{}
	assert.Error(t, d.SetGain(0))
	assert.Error(t, d.SetGain(-1))
	assert.Error(t, d.SetGain(4.5))
	assert.NoError(t, d.SetGain(1.0))
	assert.NoError(t, d.SetGain(4.0))
}

package audio

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/audiopipe/internal/errors"
)

func TestAnalyzeStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Result
	}{
		{"nil is OK", nil, ResultOK},
		{"invalid arguments", ErrInvalidArguments, ResultInvalidArguments},
		{"not initialized", ErrNotInitialized, ResultNotInitialized},
		{"not supported", ErrNotSupported, ResultNotSupported},
		{"unknown maps to invalid state", errors.NewStd("tape jam"), ResultInvalidState},
		{"wrapped sentinel", fmt.Errorf("open: %w", ErrNotInitialized), ResultNotInitialized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AnalyzeStatus(tt.err))
		})
	}
}

func TestAnalyzeStatusEnhancedError(t *testing.T) {
	// A device error passed through the error builder still maps by its
	// wrapped sentinel.
	err := errors.New(ErrNotSupported).
		Component("device").
		Category(errors.CategoryAudioDevice).
		Build()
	assert.Equal(t, ResultNotSupported, AnalyzeStatus(err))
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "OK", ResultOK.String())
	assert.Equal(t, "NOT_INITIALIZED", ResultNotInitialized.String())
	assert.Equal(t, "INVALID_ARGUMENTS", ResultInvalidArguments.String())
	assert.Equal(t, "INVALID_STATE", ResultInvalidState.String())
	assert.Equal(t, "NOT_SUPPORTED", ResultNotSupported.String())
	assert.Equal(t, "Result(42)", Result(42).String())
}

func TestReadStatusWireFormat(t *testing.T) {
	status := ReadStatus{Result: ResultNotInitialized, Transferred: 0x0102030405060708}
	var buf [ReadStatusSize]byte
	status.Marshal(buf[:])

	// Little-endian result code, zeroed padding, little-endian count.
	assert.Equal(t, []byte{1, 0, 0, 0}, buf[0:4])
	assert.Equal(t, []byte{0, 0, 0, 0}, buf[4:8])
	assert.Equal(t, []byte{8, 7, 6, 5, 4, 3, 2, 1}, buf[8:16])

	assert.Equal(t, status, UnmarshalReadStatus(buf[:]))
}

func TestFormatFrameSize(t *testing.T) {
	assert.Equal(t, 2, Format{Channels: 1, BitDepth: 16}.FrameSize())
	assert.Equal(t, 4, Format{Channels: 2, BitDepth: 16}.FrameSize())
	assert.Equal(t, 8, Format{Channels: 2, BitDepth: 32}.FrameSize())
}

func TestFormatChannelMask(t *testing.T) {
	assert.Equal(t, uint32(0x10), Format{Channels: 1}.ChannelMask())
	assert.Equal(t, uint32(0x0C), Format{Channels: 2}.ChannelMask())
	assert.Equal(t, uint32(0), Format{Channels: 6}.ChannelMask())
}

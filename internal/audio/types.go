// Package audio defines the shared types of the capture pipeline: result
// codes, the per-read status record and the stream format description.
package audio

import (
	"encoding/binary"
	"fmt"

	"github.com/tphakala/audiopipe/internal/errors"
)

// Result is the outcome code of a stream operation or a single read cycle.
type Result int32

const (
	ResultOK Result = iota
	ResultNotInitialized
	ResultInvalidArguments
	ResultInvalidState
	ResultNotSupported
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "OK"
	case ResultNotInitialized:
		return "NOT_INITIALIZED"
	case ResultInvalidArguments:
		return "INVALID_ARGUMENTS"
	case ResultInvalidState:
		return "INVALID_STATE"
	case ResultNotSupported:
		return "NOT_SUPPORTED"
	default:
		return fmt.Sprintf("Result(%d)", int32(r))
	}
}

// Sentinel errors for device operations. Device adapters wrap their native
// failure codes into one of these so AnalyzeStatus can map them.
var (
	ErrNotSupported     = errors.NewStd("operation not supported")
	ErrNotInitialized   = errors.NewStd("device not initialized")
	ErrInvalidArguments = errors.NewStd("invalid arguments")
	ErrInvalidState     = errors.NewStd("invalid state")
)

// AnalyzeStatus maps a device error to a Result code. A nil error is OK;
// unrecognized errors report INVALID_STATE, matching the conservative
// treatment of unknown device status codes.
func AnalyzeStatus(err error) Result {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, ErrInvalidArguments):
		return ResultInvalidArguments
	case errors.Is(err, ErrNotInitialized):
		return ResultNotInitialized
	case errors.Is(err, ErrNotSupported):
		return ResultNotSupported
	default:
		return ResultInvalidState
	}
}

// ReadStatusSize is the wire size of one ReadStatus record in the status
// queue: result code (4 bytes), padding (4), transferred count (8).
const ReadStatusSize = 16

// ReadStatus reports the outcome of one capture read cycle.
type ReadStatus struct {
	Result      Result
	Transferred uint64 // bytes moved into the data queue this cycle
}

// Marshal writes the record into p, which must hold ReadStatusSize bytes.
func (s ReadStatus) Marshal(p []byte) {
	_ = p[ReadStatusSize-1]
	binary.LittleEndian.PutUint32(p[0:4], uint32(s.Result))
	binary.LittleEndian.PutUint32(p[4:8], 0)
	binary.LittleEndian.PutUint64(p[8:16], s.Transferred)
}

// UnmarshalReadStatus decodes a record from p.
func UnmarshalReadStatus(p []byte) ReadStatus {
	_ = p[ReadStatusSize-1]
	return ReadStatus{
		Result:      Result(int32(binary.LittleEndian.Uint32(p[0:4]))),
		Transferred: binary.LittleEndian.Uint64(p[8:16]),
	}
}

// Format describes the PCM format of a capture stream.
type Format struct {
	SampleRate int    // in Hz, e.g. 48000
	Channels   int    // 1 for mono, 2 for stereo
	BitDepth   int    // bits per sample, e.g. 16
	Encoding   string // e.g. "pcm_s16le"
}

// FrameSize returns the size of one frame in bytes.
func (f Format) FrameSize() int {
	return f.Channels * f.BitDepth / 8
}

// ChannelMask returns the input channel mask for the configured channel
// count, 0 if the count has no standard mask.
func (f Format) ChannelMask() uint32 {
	switch f.Channels {
	case 1:
		return 0x10 // CHANNEL_IN_MONO
	case 2:
		return 0x0C // CHANNEL_IN_STEREO
	default:
		return 0
	}
}

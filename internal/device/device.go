// Package device defines the capture device boundary: a synchronous
// blocking read plus optional capability interfaces for statistics the
// hardware may or may not provide. The capture core depends only on this
// contract, never on a concrete adapter.
package device

import (
	"github.com/tphakala/audiopipe/internal/audio"
)

// Device is a capture stream. Read blocks until at least one byte of audio
// is available or the stream fails, filling p and returning the count.
// Adapters wrap native failure codes into the audio package sentinels so
// audio.AnalyzeStatus can map them into status records.
type Device interface {
	Read(p []byte) (int, error)
	Format() audio.Format
	Close() error
}

// LostFramesReporter is implemented by devices that track frames dropped
// by the hardware or the adapter's staging buffer.
type LostFramesReporter interface {
	LostFrames() (uint32, error)
}

// PositionReporter is implemented by devices that can report the capture
// position: total frames captured and a monotonic timestamp in
// nanoseconds.
type PositionReporter interface {
	CapturePosition() (frames, nanos int64, err error)
}

// GainSetter is implemented by devices with adjustable input gain.
type GainSetter interface {
	SetGain(gain float64) error
}

// ParameterHandler is implemented by devices supporting free-form
// key/value parameters.
type ParameterHandler interface {
	GetParameter(key string) (string, error)
	SetParameter(key, value string) error
}

// BufferSizer is implemented by devices that report their preferred
// transfer buffer size in bytes.
type BufferSizer interface {
	BufferSize() int
}

// EffectHandler is implemented by devices that can attach processing
// effects to the stream, identified by an opaque effect ID.
type EffectHandler interface {
	AddEffect(effectID uint64) error
	RemoveEffect(effectID uint64) error
}

// Router is implemented by devices whose hardware routing can be queried
// or changed at runtime.
type Router interface {
	RoutedDevice() (string, error)
	SetRoutedDevice(address string) error
}

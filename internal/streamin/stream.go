package streamin

import (
	"github.com/tphakala/audiopipe/internal/audio"
	"github.com/tphakala/audiopipe/internal/device"
)

// Stream bundles the property pass-throughs every stream direction shares.
// These are simple forwarders to the device and carry no session state.
type Stream struct {
	dev device.Device
}

// NewStream wraps a device for property access.
func NewStream(dev device.Device) *Stream {
	return &Stream{dev: dev}
}

// Format returns the device's PCM format.
func (s *Stream) Format() audio.Format {
	return s.dev.Format()
}

// SampleRate returns the stream sample rate in Hz.
func (s *Stream) SampleRate() int {
	return s.dev.Format().SampleRate
}

// ChannelMask returns the input channel mask.
func (s *Stream) ChannelMask() uint32 {
	return s.dev.Format().ChannelMask()
}

// FrameSize returns the size of one frame in bytes.
func (s *Stream) FrameSize() int {
	return s.dev.Format().FrameSize()
}

// SetGain forwards a gain change to the device.
func (s *Stream) SetGain(gain float64) audio.Result {
	setter, ok := s.dev.(device.GainSetter)
	if !ok {
		return audio.ResultNotSupported
	}
	return audio.AnalyzeStatus(setter.SetGain(gain))
}

// GetParameter reads a free-form device parameter.
func (s *Stream) GetParameter(key string) (string, audio.Result) {
	handler, ok := s.dev.(device.ParameterHandler)
	if !ok {
		return "", audio.ResultNotSupported
	}
	value, err := handler.GetParameter(key)
	return value, audio.AnalyzeStatus(err)
}

// SetParameter writes a free-form device parameter.
func (s *Stream) SetParameter(key, value string) audio.Result {
	handler, ok := s.dev.(device.ParameterHandler)
	if !ok {
		return audio.ResultNotSupported
	}
	return audio.AnalyzeStatus(handler.SetParameter(key, value))
}

// BufferSize returns the device's preferred transfer buffer size in
// bytes, 0 when the device does not report one.
func (s *Stream) BufferSize() int {
	if sizer, ok := s.dev.(device.BufferSizer); ok {
		return sizer.BufferSize()
	}
	return 0
}

// AddEffect attaches a processing effect to the stream.
func (s *Stream) AddEffect(effectID uint64) audio.Result {
	handler, ok := s.dev.(device.EffectHandler)
	if !ok {
		return audio.ResultNotSupported
	}
	return audio.AnalyzeStatus(handler.AddEffect(effectID))
}

// RemoveEffect detaches a processing effect from the stream.
func (s *Stream) RemoveEffect(effectID uint64) audio.Result {
	handler, ok := s.dev.(device.EffectHandler)
	if !ok {
		return audio.ResultNotSupported
	}
	return audio.AnalyzeStatus(handler.RemoveEffect(effectID))
}

// GetDevice reports the routed hardware device address.
func (s *Stream) GetDevice() (string, audio.Result) {
	router, ok := s.dev.(device.Router)
	if !ok {
		return "", audio.ResultNotSupported
	}
	address, err := router.RoutedDevice()
	return address, audio.AnalyzeStatus(err)
}

// SetDevice changes the routed hardware device address.
func (s *Stream) SetDevice(address string) audio.Result {
	router, ok := s.dev.(device.Router)
	if !ok {
		return audio.ResultNotSupported
	}
	return audio.AnalyzeStatus(router.SetRoutedDevice(address))
}

// Standby forwards a standby request to devices that support it.
func (s *Stream) Standby() audio.Result {
	standbyer, ok := s.dev.(interface{ Standby() error })
	if !ok {
		return audio.ResultNotSupported
	}
	return audio.AnalyzeStatus(standbyer.Standby())
}

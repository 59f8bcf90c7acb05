// Package malgodev adapts a malgo (miniaudio) capture device to the
// blocking device.Device contract. The malgo data callback stages samples
// into a ring buffer that Read drains, turning the callback-driven API
// into the synchronous read the capture task expects.
package malgodev

import (
	"encoding/binary"
	"io"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/smallnest/ringbuffer"

	"github.com/tphakala/audiopipe/internal/audio"
	"github.com/tphakala/audiopipe/internal/errors"
	"github.com/tphakala/audiopipe/internal/logging"
)

// stagingSeconds sizes the callback-to-Read staging buffer. One second of
// audio absorbs scheduling jitter without noticeable memory cost.
const stagingSeconds = 1

// Config selects and configures the capture device.
type Config struct {
	// Source is a device name, decoded device ID, or "sysdefault".
	Source string
	Format audio.Format
	Gain   float64
	Debug  bool
}

// Device is a malgo-backed capture device.
type Device struct {
	cfg    Config
	format audio.Format

	ctx *malgo.AllocatedContext
	dev *malgo.Device

	// staging carries callback data to blocking Read calls. It is
	// mutex-guarded internally, which is fine here: this is the device
	// boundary the capture loop blocks inside, not the lock-free queue
	// path after it.
	staging *ringbuffer.RingBuffer

	mu     sync.Mutex
	closed atomic.Bool
	gain   atomic.Value // float64

	lostFrames     atomic.Uint32
	capturedFrames atomic.Int64

	logger *slog.Logger
}

// Open initializes the malgo context, selects the capture source matching
// cfg.Source and starts the device.
func Open(cfg Config) (*Device, error) {
	if cfg.Format.SampleRate == 0 {
		cfg.Format.SampleRate = 48000
	}
	if cfg.Format.Channels == 0 {
		cfg.Format.Channels = 1
	}
	if cfg.Format.BitDepth == 0 {
		cfg.Format.BitDepth = 16
	}
	if cfg.Format.Encoding == "" {
		cfg.Format.Encoding = "pcm_s16le"
	}
	if cfg.Gain == 0 {
		cfg.Gain = 1.0
	}
	if cfg.Format.BitDepth != 16 {
		return nil, errors.Newf("unsupported bit depth %d, only 16-bit capture is implemented", cfg.Format.BitDepth).
			Component("malgodev").
			Category(errors.CategoryValidation).
			Build()
	}

	d := &Device{
		cfg:    cfg,
		format: cfg.Format,
		logger: logging.ForService("malgodev"),
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	d.gain.Store(cfg.Gain)

	stagingSize := cfg.Format.SampleRate * cfg.Format.FrameSize() * stagingSeconds
	d.staging = ringbuffer.New(stagingSize).SetBlocking(true)

	malgoCtx, err := malgo.InitContext([]malgo.Backend{platformBackend()}, malgo.ContextConfig{}, func(message string) {
		if cfg.Debug {
			d.logger.Debug("malgo", "message", message)
		}
	})
	if err != nil {
		return nil, errors.New(err).
			Component("malgodev").
			Category(errors.CategoryAudioDevice).
			Context("operation", "init_context").
			Build()
	}
	d.ctx = malgoCtx

	source, err := selectCaptureSource(malgoCtx, cfg.Source)
	if err != nil {
		_ = malgoCtx.Uninit()
		return nil, err
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(cfg.Format.Channels)
	deviceConfig.SampleRate = uint32(cfg.Format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1
	deviceConfig.Capture.DeviceID = source.pointer

	dev, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: d.onReceiveFrames,
	})
	if err != nil {
		_ = malgoCtx.Uninit()
		return nil, errors.New(err).
			Component("malgodev").
			Category(errors.CategoryAudioDevice).
			Context("operation", "init_device").
			Context("source", source.name).
			Build()
	}
	d.dev = dev

	if err := dev.Start(); err != nil {
		dev.Uninit()
		_ = malgoCtx.Uninit()
		return nil, errors.New(err).
			Component("malgodev").
			Category(errors.CategoryAudioDevice).
			Context("operation", "start").
			Context("source", source.name).
			Build()
	}

	d.logger.Info("capture device started",
		"source", source.name,
		"sample_rate", cfg.Format.SampleRate,
		"channels", cfg.Format.Channels)
	return d, nil
}

// platformBackend picks the native backend the way the OS expects.
func platformBackend() malgo.Backend {
	switch runtime.GOOS {
	case "linux":
		return malgo.BackendAlsa
	case "windows":
		return malgo.BackendWasapi
	case "darwin":
		return malgo.BackendCoreaudio
	default:
		return malgo.BackendNull
	}
}

// onReceiveFrames stages captured samples for Read. Frames that do not fit
// are dropped and counted as lost.
func (d *Device) onReceiveFrames(_, samples []byte, frameCount uint32) {
	if gain, ok := d.gain.Load().(float64); ok && gain != 1.0 {
		applyGainS16(samples, gain)
	}

	n, err := d.staging.TryWrite(samples)
	if err != nil || n < len(samples) {
		frameSize := d.format.FrameSize()
		if frameSize > 0 {
			d.lostFrames.Add(uint32((len(samples) - n) / frameSize))
		}
	}
	d.capturedFrames.Add(int64(frameCount))
}

// Read blocks until staged audio is available, filling p. A closed device
// reports ErrNotInitialized.
func (d *Device) Read(p []byte) (int, error) {
	n, err := d.staging.Read(p)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return n, audio.ErrNotInitialized
		}
		return n, errors.New(err).
			Component("malgodev").
			Category(errors.CategoryAudioDevice).
			Context("operation", "read").
			Build()
	}
	return n, nil
}

// Format returns the capture format.
func (d *Device) Format() audio.Format {
	return d.format
}

// BufferSize reports the staging buffer capacity in bytes.
func (d *Device) BufferSize() int {
	return d.staging.Capacity()
}

// LostFrames reports frames dropped since open.
func (d *Device) LostFrames() (uint32, error) {
	return d.lostFrames.Load(), nil
}

// CapturePosition reports total captured frames and a wall-clock
// timestamp in nanoseconds.
func (d *Device) CapturePosition() (frames, nanos int64, err error) {
	return d.capturedFrames.Load(), time.Now().UnixNano(), nil
}

// SetGain sets the input gain applied to staged samples. Valid range is
// (0, 4].
func (d *Device) SetGain(gain float64) error {
	if gain <= 0 || gain > 4 {
		return audio.ErrInvalidArguments
	}
	d.gain.Store(gain)
	return nil
}

// Close stops the device and releases the malgo context. Blocked Read
// calls drain remaining staged audio and then fail.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed.Swap(true) {
		return audio.ErrInvalidState
	}

	if d.dev != nil {
		_ = d.dev.Stop()
		d.dev.Uninit()
		d.dev = nil
	}
	if d.ctx != nil {
		_ = d.ctx.Uninit()
		d.ctx = nil
	}
	d.staging.CloseWriter()

	d.logger.Info("capture device closed", "lost_frames", d.lostFrames.Load())
	return nil
}

// applyGainS16 scales little-endian signed 16-bit samples in place,
// clamping at full scale.
func applyGainS16(samples []byte, gain float64) {
	for i := 0; i+1 < len(samples); i += 2 {
		sample := float64(int16(binary.LittleEndian.Uint16(samples[i : i+2])))
		scaled := sample * gain
		if scaled > math.MaxInt16 {
			scaled = math.MaxInt16
		} else if scaled < math.MinInt16 {
			scaled = math.MinInt16
		}
		binary.LittleEndian.PutUint16(samples[i:i+2], uint16(int16(scaled)))
	}
}

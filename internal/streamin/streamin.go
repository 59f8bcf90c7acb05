// Package streamin owns the lifecycle of a capture session: the shared
// queues, the event flag and the capture task created by PrepareForReading
// and torn down by Close. At most one session is live per StreamIn.
package streamin

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tphakala/audiopipe/internal/audio"
	"github.com/tphakala/audiopipe/internal/capture"
	"github.com/tphakala/audiopipe/internal/conf"
	"github.com/tphakala/audiopipe/internal/device"
	"github.com/tphakala/audiopipe/internal/fmq"
	"github.com/tphakala/audiopipe/internal/logging"
	"github.com/tphakala/audiopipe/internal/observability/metrics"
	"github.com/tphakala/audiopipe/internal/sched"
)

// Config tunes session behavior; zero values fall back to defaults.
type Config struct {
	WaitTimeout   time.Duration
	OverrunPolicy string
}

// StreamIn is the capture stream controller. The mutex guards lifecycle
// calls only; the capture hot path never touches it.
type StreamIn struct {
	id       string
	dev      device.Device
	stream   *Stream
	elevator sched.Elevator
	metrics  *metrics.CaptureMetrics
	cfg      Config
	logger   *slog.Logger

	mu           sync.Mutex
	closed       bool
	stopReadTask atomic.Bool
	readTask     *capture.Task
	dataMQ       *fmq.DataQueue
	statusMQ     *fmq.StatusQueue
	efGroup      *fmq.EventFlag
}

// New creates a stream controller over an open device. m may be nil to
// disable metrics.
func New(id string, dev device.Device, elevator sched.Elevator, m *metrics.CaptureMetrics, cfg Config) *StreamIn {
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = time.Second
	}
	if cfg.OverrunPolicy == "" {
		cfg.OverrunPolicy = conf.OverrunDrop
	}
	logger := logging.ForService("streamin")
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamIn{
		id:       id,
		dev:      dev,
		stream:   NewStream(dev),
		elevator: elevator,
		metrics:  m,
		cfg:      cfg,
		logger:   logger.With("stream_id", id),
	}
}

// Stream exposes the property pass-throughs.
func (s *StreamIn) Stream() *Stream {
	return s.stream
}

// PrepareForReading establishes the capture session: both queues, the
// event flag and the capture task at the requested priority. It fails with
// INVALID_STATE if a session already exists, leaving that session intact,
// and with INVALID_ARGUMENTS if a queue or the event flag cannot be
// constructed. On success it returns the descriptors the remote consumer
// maps.
func (s *StreamIn) PrepareForReading(frameSize, framesCount uint32, prio sched.Priority) (audio.Result, *fmq.Descriptor, *fmq.Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return audio.ResultInvalidState, nil, nil
	}
	if s.dataMQ != nil {
		s.logger.Error("the client attempts to call PrepareForReading twice")
		return audio.ResultInvalidState, nil, nil
	}

	capacity := uint64(frameSize) * uint64(framesCount)
	dataMQ, err := fmq.NewDataQueue(int(capacity))
	if err != nil {
		s.logger.Error("data MQ is invalid", "error", err,
			"frame_size", frameSize, "frames_count", framesCount)
		return audio.ResultInvalidArguments, nil, nil
	}

	statusMQ, err := fmq.NewStatusQueue(1, audio.ReadStatusSize)
	if err != nil {
		s.logger.Error("status MQ is invalid", "error", err)
		_ = dataMQ.Close()
		return audio.ResultInvalidArguments, nil, nil
	}

	efGroup, err := fmq.CreateEventFlag(dataMQ.EventFlagWord())
	if err != nil {
		s.logger.Error("failed creating event flag for data MQ", "error", err)
		_ = statusMQ.Close()
		_ = dataMQ.Close()
		return audio.ResultInvalidArguments, nil, nil
	}

	task := capture.NewTask(capture.Config{
		StreamID:      s.id,
		Priority:      prio,
		WaitTimeout:   s.cfg.WaitTimeout,
		OverrunPolicy: s.cfg.OverrunPolicy,
	}, &s.stopReadTask, s.dev, dataMQ, statusMQ, efGroup, s.elevator, s.metrics)
	task.Start()

	s.dataMQ = dataMQ
	s.statusMQ = statusMQ
	s.efGroup = efGroup
	s.readTask = task

	if s.metrics != nil {
		s.metrics.RecordSessionStarted(s.id)
	}
	s.logger.Info("capture session prepared",
		"frame_size", frameSize, "frames_count", framesCount,
		"priority", prio.String())

	dataDesc := dataMQ.Descriptor()
	statusDesc := statusMQ.Descriptor()
	return audio.ResultOK, &dataDesc, &statusDesc
}

// Close tears the session down: it publishes the stop flag, joins the
// capture task, destroys the event flag and closes the device stream. A
// second Close reports INVALID_STATE. Safe to call from cleanup paths.
func (s *StreamIn) Close() audio.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return audio.ResultInvalidState
	}
	s.closed = true

	if s.readTask != nil {
		s.stopReadTask.Store(true)
		s.readTask.Join()
		s.readTask = nil
	}
	if s.efGroup != nil {
		if err := s.efGroup.Delete(); err != nil {
			s.logger.Error("read MQ event flag deletion error", "error", err)
		}
		s.efGroup = nil
	}
	if s.statusMQ != nil {
		if err := s.statusMQ.Close(); err != nil {
			s.logger.Error("status MQ close error", "error", err)
		}
		s.statusMQ = nil
	}
	if s.dataMQ != nil {
		if err := s.dataMQ.Close(); err != nil {
			s.logger.Error("data MQ close error", "error", err)
		}
		s.dataMQ = nil
	}
	if err := s.dev.Close(); err != nil {
		s.logger.Error("device close error", "error", err)
	}

	if s.metrics != nil {
		s.metrics.RecordSessionClosed(s.id)
	}
	s.logger.Info("capture session closed")
	return audio.ResultOK
}

// GetInputFramesLost reports frames lost by the device since the last
// query, NOT_SUPPORTED when the device has no such capability.
func (s *StreamIn) GetInputFramesLost() (uint32, audio.Result) {
	reporter, ok := s.dev.(device.LostFramesReporter)
	if !ok {
		return 0, audio.ResultNotSupported
	}
	frames, err := reporter.LostFrames()
	if err != nil {
		return 0, audio.AnalyzeStatus(err)
	}
	return frames, audio.ResultOK
}

// GetCapturePosition reports total captured frames and a timestamp in
// nanoseconds, NOT_SUPPORTED when the device has no such capability.
func (s *StreamIn) GetCapturePosition() (frames, nanos int64, res audio.Result) {
	reporter, ok := s.dev.(device.PositionReporter)
	if !ok {
		return 0, 0, audio.ResultNotSupported
	}
	frames, nanos, err := reporter.CapturePosition()
	if err != nil {
		return 0, 0, audio.AnalyzeStatus(err)
	}
	return frames, nanos, audio.ResultOK
}

// Package capture runs the real-time read loop of a capture session: one
// dedicated OS thread draining the blocking device read into the shared
// data queue, publishing one status record per cycle and signalling the
// consumer through the event flag. The loop never takes a lock and never
// allocates, so a lower-priority thread can never stall it.
package capture

import (
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/tphakala/audiopipe/internal/audio"
	"github.com/tphakala/audiopipe/internal/conf"
	"github.com/tphakala/audiopipe/internal/device"
	"github.com/tphakala/audiopipe/internal/fmq"
	"github.com/tphakala/audiopipe/internal/logging"
	"github.com/tphakala/audiopipe/internal/observability/metrics"
	"github.com/tphakala/audiopipe/internal/sched"
)

// State reflects where the capture task is in its lifecycle.
type State int32

const (
	StateStarting State = iota
	StateRunning
	StateStopping
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Config tunes one capture task.
type Config struct {
	StreamID string
	Priority sched.Priority
	// WaitTimeout bounds each event-flag wait so the stop flag is
	// re-checked even if no wake ever arrives.
	WaitTimeout time.Duration
	// OverrunPolicy selects logging behavior when a queue write fails
	// under backpressure, conf.OverrunDrop or conf.OverrunCount.
	// Overruns are counted in metrics under either policy.
	OverrunPolicy string
}

// Task owns the read loop of one capture session. The stop flag is the
// only inbound control channel: set once by the controller with a release
// store, observed here with acquire loads every iteration.
type Task struct {
	cfg      Config
	stop     *atomic.Bool
	dev      device.Device
	data     *fmq.DataQueue
	status   *fmq.StatusQueue
	flag     *fmq.EventFlag
	elevator sched.Elevator
	metrics  *metrics.CaptureMetrics
	logger   *slog.Logger

	state atomic.Int32
	done  chan struct{}

	// scratch is sized to the data queue capacity and reused for every
	// device read; the hot path must not allocate.
	scratch   []byte
	statusBuf [audio.ReadStatusSize]byte
}

// NewTask wires a capture task. m may be nil to disable metrics.
func NewTask(cfg Config, stop *atomic.Bool, dev device.Device, data *fmq.DataQueue, status *fmq.StatusQueue, flag *fmq.EventFlag, elevator sched.Elevator, m *metrics.CaptureMetrics) *Task {
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = time.Second
	}
	if cfg.OverrunPolicy == "" {
		cfg.OverrunPolicy = conf.OverrunDrop
	}
	logger := logging.ForService("capture")
	if logger == nil {
		logger = slog.Default()
	}
	return &Task{
		cfg:      cfg,
		stop:     stop,
		dev:      dev,
		data:     data,
		status:   status,
		flag:     flag,
		elevator: elevator,
		metrics:  m,
		logger:   logger.With("stream_id", cfg.StreamID),
		done:     make(chan struct{}),
		scratch:  make([]byte, data.Capacity()),
	}
}

// Start launches the task on its own locked OS thread.
func (t *Task) Start() {
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		t.run()
	}()
}

// Done is closed once the loop has fully exited; after that no further
// queue or event-flag writes occur from this task.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Join blocks until the task has terminated.
func (t *Task) Join() {
	<-t.done
}

// State returns the current lifecycle state.
func (t *Task) State() State {
	return State(t.state.Load())
}

// run is the whole task as a single call. Control is deliberately not
// yielded to any generic worker abstraction between iterations: such
// abstractions take locks between callbacks, which at urgent audio
// priority invites priority inversion. Only the stop flag ends the loop.
func (t *Task) run() {
	defer close(t.done)
	defer t.state.Store(int32(StateTerminated))

	if t.cfg.Priority != sched.PriorityNormal {
		if err := t.elevator.Elevate(t.cfg.Priority); err != nil {
			// Non-fatal, the loop runs at default priority.
			t.logger.Warn("failed to elevate capture thread priority",
				"priority", t.cfg.Priority.String(), "error", err)
			if t.metrics != nil {
				t.metrics.RecordPriorityError(t.cfg.StreamID)
			}
		}
	}

	t.state.Store(int32(StateRunning))

	for !t.stop.Load() {
		bits := t.flag.Wait(fmq.FlagNotFull, t.cfg.WaitTimeout)
		if bits&fmq.FlagNotFull == 0 {
			// Nothing to do this tick; the wait doubles as the
			// stop-flag polling interval.
			if t.metrics != nil {
				t.metrics.RecordWaitTimeout(t.cfg.StreamID)
			}
			continue
		}

		availToWrite := t.data.AvailableToWrite()
		readStart := time.Now()
		n, err := t.dev.Read(t.scratch[:availToWrite])

		var status audio.ReadStatus
		if err == nil {
			status = audio.ReadStatus{Result: audio.ResultOK, Transferred: uint64(n)}
			if !t.data.Write(t.scratch[:n]) {
				t.onDataOverrun(n)
			}
			if t.metrics != nil {
				t.metrics.RecordReadBytes(t.cfg.StreamID, n)
			}
		} else {
			status = audio.ReadStatus{Result: audio.AnalyzeStatus(err), Transferred: 0}
			t.logger.Warn("device read failed",
				"result", status.Result.String(), "error", err)
			if t.metrics != nil {
				t.metrics.RecordReadError(t.cfg.StreamID, status.Result.String())
			}
		}

		status.Marshal(t.statusBuf[:])
		if !t.status.WriteRecord(t.statusBuf[:]) {
			t.onStatusBackpressure()
		}

		if err := t.flag.Wake(fmq.FlagNotEmpty); err != nil {
			t.logger.Warn("event flag wake failed", "error", err)
		}

		if t.metrics != nil {
			t.metrics.RecordReadDuration(t.cfg.StreamID, time.Since(readStart).Seconds())
			t.metrics.RecordReadCycle(t.cfg.StreamID, status.Result.String())
		}
	}

	t.state.Store(int32(StateStopping))
}

// onDataOverrun handles a rejected data queue write per the overrun policy.
func (t *Task) onDataOverrun(bytesDropped int) {
	if t.cfg.OverrunPolicy != conf.OverrunCount {
		t.logger.Warn("data message queue write failed", "bytes_dropped", bytesDropped)
	}
	if t.metrics != nil {
		t.metrics.RecordDataOverrun(t.cfg.StreamID, bytesDropped)
	}
}

// onStatusBackpressure handles a rejected status queue write. The previous
// record was not yet consumed; the loop continues regardless.
func (t *Task) onStatusBackpressure() {
	if t.cfg.OverrunPolicy != conf.OverrunCount {
		t.logger.Warn("status message queue write failed")
	}
	if t.metrics != nil {
		t.metrics.RecordStatusBackpressure(t.cfg.StreamID)
	}
}

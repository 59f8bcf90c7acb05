package capture

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/audiopipe/internal/audio"
	"github.com/tphakala/audiopipe/internal/conf"
	"github.com/tphakala/audiopipe/internal/fmq"
	"github.com/tphakala/audiopipe/internal/sched"
)

// readReply scripts one blocking device read.
type readReply struct {
	data []byte
	err  error
}

// scriptedDevice blocks each Read until the test supplies a reply, and
// records the requested read sizes.
type scriptedDevice struct {
	replies  chan readReply
	requests chan int
}

func newScriptedDevice() *scriptedDevice {
	return &scriptedDevice{
		replies:  make(chan readReply),
		requests: make(chan int, 16),
	}
}

func (d *scriptedDevice) Read(p []byte) (int, error) {
	d.requests <- len(p)
	reply := <-d.replies
	if reply.err != nil {
		return 0, reply.err
	}
	return copy(p, reply.data), nil
}

func (d *scriptedDevice) Format() audio.Format {
	return audio.Format{SampleRate: 48000, Channels: 1, BitDepth: 16}
}

func (d *scriptedDevice) Close() error { return nil }

// failingElevator simulates a platform refusing real-time priority.
type failingElevator struct {
	calls atomic.Int32
}

func (e *failingElevator) Elevate(sched.Priority) error {
	e.calls.Add(1)
	return audio.ErrNotSupported
}

// harness bundles one capture task with its queues and flags.
type harness struct {
	stop   atomic.Bool
	dev    *scriptedDevice
	data   *fmq.DataQueue
	status *fmq.StatusQueue
	flag   *fmq.EventFlag
	task   *Task
}

func newHarness(t *testing.T, capacity int, cfg Config) *harness {
	t.Helper()

	data, err := fmq.NewDataQueue(capacity)
	require.NoError(t, err)
	t.Cleanup(func() { _ = data.Close() })

	status, err := fmq.NewStatusQueue(1, audio.ReadStatusSize)
	require.NoError(t, err)
	t.Cleanup(func() { _ = status.Close() })

	flag, err := fmq.CreateEventFlag(data.EventFlagWord())
	require.NoError(t, err)

	h := &harness{dev: newScriptedDevice(), data: data, status: status, flag: flag}
	if cfg.WaitTimeout == 0 {
		cfg.WaitTimeout = 50 * time.Millisecond
	}
	h.task = NewTask(cfg, &h.stop, h.dev, data, status, flag, sched.NoopElevator{}, nil)
	return h
}

func (h *harness) stopAndJoin(t *testing.T) {
	t.Helper()
	h.stop.Store(true)
	select {
	case <-h.task.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("capture task did not terminate")
	}
}

// waitCycle blocks until the task signals NOT_EMPTY for a completed cycle.
func (h *harness) waitCycle(t *testing.T) {
	t.Helper()
	bits := h.flag.Wait(fmq.FlagNotEmpty, 2*time.Second)
	require.Equal(t, fmq.FlagNotEmpty, bits, "no cycle completed")
}

func (h *harness) readStatus(t *testing.T) (audio.ReadStatus, bool) {
	t.Helper()
	buf := make([]byte, audio.ReadStatusSize)
	if !h.status.ReadRecord(buf) {
		return audio.ReadStatus{}, false
	}
	return audio.UnmarshalReadStatus(buf), true
}

func TestReadCycleRoundTrip(t *testing.T) {
	h := newHarness(t, 64, Config{StreamID: "test"})
	h.task.Start()
	defer h.stopAndJoin(t)

	require.NoError(t, h.flag.Wake(fmq.FlagNotFull))

	// The read request covers exactly the current free space.
	select {
	case n := <-h.dev.requests:
		assert.Equal(t, 64, n)
	case <-time.After(2 * time.Second):
		t.Fatal("device read was never issued")
	}

	payload := []byte("sixteen bytes!!!")
	h.dev.replies <- readReply{data: payload}
	h.waitCycle(t)

	// Exactly n bytes in the data queue.
	out := make([]byte, 64)
	assert.Equal(t, len(payload), h.data.Read(out))
	assert.Equal(t, payload, out[:len(payload)])

	// Exactly one status record with {OK, n}.
	status, ok := h.readStatus(t)
	require.True(t, ok)
	assert.Equal(t, audio.ResultOK, status.Result)
	assert.Equal(t, uint64(len(payload)), status.Transferred)
	_, ok = h.readStatus(t)
	assert.False(t, ok, "expected a single status record")
}

func TestReadErrorProducesErrorStatusOnly(t *testing.T) {
	h := newHarness(t, 64, Config{StreamID: "test"})
	h.task.Start()
	defer h.stopAndJoin(t)

	require.NoError(t, h.flag.Wake(fmq.FlagNotFull))
	<-h.dev.requests
	h.dev.replies <- readReply{err: audio.ErrNotInitialized}
	h.waitCycle(t)

	// No data bytes were written.
	assert.Equal(t, 0, h.data.AvailableToRead())

	status, ok := h.readStatus(t)
	require.True(t, ok)
	assert.Equal(t, audio.ResultNotInitialized, status.Result)
	assert.Equal(t, uint64(0), status.Transferred)
}

func TestReadRequestMatchesAvailableSpace(t *testing.T) {
	h := newHarness(t, 64, Config{StreamID: "test"})

	// Occupy part of the queue before the task starts.
	require.True(t, h.data.Write(make([]byte, 24)))

	h.task.Start()
	defer h.stopAndJoin(t)

	require.NoError(t, h.flag.Wake(fmq.FlagNotFull))
	select {
	case n := <-h.dev.requests:
		assert.Equal(t, 40, n)
	case <-time.After(2 * time.Second):
		t.Fatal("device read was never issued")
	}
	h.dev.replies <- readReply{data: make([]byte, 40)}
}

func TestStopWhileBlockedInWait(t *testing.T) {
	h := newHarness(t, 64, Config{StreamID: "test", WaitTimeout: 50 * time.Millisecond})
	h.task.Start()

	// Give the task time to enter its wait, then stop without waking.
	time.Sleep(20 * time.Millisecond)
	start := time.Now()
	h.stopAndJoin(t)

	// Exit is bounded by one wait-timeout period, with slack for
	// scheduling.
	assert.Less(t, time.Since(start), time.Second)
	// No device read was ever performed.
	assert.Empty(t, h.dev.requests)
	assert.Equal(t, StateTerminated, h.task.State())
}

func TestStatusBackpressureDoesNotStallLoop(t *testing.T) {
	h := newHarness(t, 1024, Config{StreamID: "test"})
	h.task.Start()
	defer h.stopAndJoin(t)

	// Three cycles without draining the status queue.
	for i := 0; i < 3; i++ {
		require.NoError(t, h.flag.Wake(fmq.FlagNotFull))
		<-h.dev.requests
		h.dev.replies <- readReply{data: []byte{byte(i), byte(i), byte(i), byte(i)}}
		h.waitCycle(t)
	}

	// All three payloads made it to the data queue; the loop survived
	// the failed status writes.
	assert.Equal(t, 12, h.data.AvailableToRead())

	// Only the first status record is present.
	status, ok := h.readStatus(t)
	require.True(t, ok)
	assert.Equal(t, audio.ResultOK, status.Result)
	assert.Equal(t, uint64(4), status.Transferred)
	_, ok = h.readStatus(t)
	assert.False(t, ok)
}

func TestElevationFailureIsNonFatal(t *testing.T) {
	h := newHarness(t, 64, Config{StreamID: "test"})
	elevator := &failingElevator{}
	h.task = NewTask(Config{
		StreamID:    "test",
		Priority:    sched.PriorityUrgentAudio,
		WaitTimeout: 50 * time.Millisecond,
	}, &h.stop, h.dev, h.data, h.status, h.flag, elevator, nil)
	h.task.Start()
	defer h.stopAndJoin(t)

	// The loop still runs at default priority.
	require.NoError(t, h.flag.Wake(fmq.FlagNotFull))
	<-h.dev.requests
	h.dev.replies <- readReply{data: []byte("ok")}
	h.waitCycle(t)

	assert.Equal(t, int32(1), elevator.calls.Load())
	assert.Equal(t, 2, h.data.AvailableToRead())
}

func TestDataOverrunIsDroppedNotPartial(t *testing.T) {
	cfg := Config{StreamID: "test", OverrunPolicy: conf.OverrunCount}
	h := newHarness(t, 8, cfg)
	h.task.Start()
	defer h.stopAndJoin(t)

	require.NoError(t, h.flag.Wake(fmq.FlagNotFull))
	n := <-h.dev.requests
	require.Equal(t, 8, n)

	// The task is blocked in the device read, so it cannot touch the
	// queue; shrink the free space out from under it.
	require.True(t, h.data.Write([]byte("interfe")))

	h.dev.replies <- readReply{data: make([]byte, 8)}
	h.waitCycle(t)

	// The oversized write was rejected whole, nothing partial landed.
	assert.Equal(t, 7, h.data.AvailableToRead())

	// The status record still reports the device transfer.
	status, ok := h.readStatus(t)
	require.True(t, ok)
	assert.Equal(t, audio.ResultOK, status.Result)
	assert.Equal(t, uint64(8), status.Transferred)
}

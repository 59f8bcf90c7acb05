//go:build linux

package sched

import (
	"golang.org/x/sys/unix"

	"github.com/tphakala/audiopipe/internal/errors"
)

// urgentAudioRTPriority is the SCHED_FIFO priority requested for urgent
// audio capture threads. Kept low so the thread outranks normal work
// without starving kernel threads.
const urgentAudioRTPriority = 3

// RealtimeElevator moves the calling thread into SCHED_FIFO. The caller
// must be locked to its OS thread; sched_setattr targets the current tid.
type RealtimeElevator struct{}

// NewElevator returns the platform elevator.
func NewElevator() Elevator {
	return RealtimeElevator{}
}

// Elevate requests the real-time scheduling class for the calling thread.
// PriorityNormal is a no-op.
func (RealtimeElevator) Elevate(p Priority) error {
	if p == PriorityNormal {
		return nil
	}

	attr := unix.SchedAttr{
		Size:     unix.SizeofSchedAttr,
		Policy:   unix.SCHED_FIFO,
		Priority: urgentAudioRTPriority,
	}
	if err := unix.SchedSetAttr(0, &attr, 0); err != nil {
		return errors.New(err).
			Component("sched").
			Category(errors.CategoryScheduling).
			Context("priority", p.String()).
			Context("tid", unix.Gettid()).
			Build()
	}
	return nil
}

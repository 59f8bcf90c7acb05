// Package sched provides the thread-priority-elevation capability used by
// the capture task. Elevation is injected so tests can observe or stub it.
package sched

import (
	"github.com/tphakala/audiopipe/internal/conf"
	"github.com/tphakala/audiopipe/internal/errors"
)

// Priority selects the scheduling class requested for a capture thread.
type Priority int

const (
	// PriorityNormal performs no elevation.
	PriorityNormal Priority = iota
	// PriorityUrgentAudio requests the platform real-time scheduling
	// class used for audio threads.
	PriorityUrgentAudio
)

func (p Priority) String() string {
	switch p {
	case PriorityNormal:
		return "normal"
	case PriorityUrgentAudio:
		return "urgent-audio"
	default:
		return "unknown"
	}
}

// ParsePriority maps a configuration value to a Priority.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case conf.PriorityNormal, "":
		return PriorityNormal, nil
	case conf.PriorityUrgent:
		return PriorityUrgentAudio, nil
	default:
		return PriorityNormal, errors.Newf("unknown priority %q", s).
			Component("sched").
			Category(errors.CategoryValidation).
			Build()
	}
}

// Elevator elevates the calling thread to the given priority. Elevate is
// called once by the capture task before entering its loop, from the OS
// thread that runs the loop.
type Elevator interface {
	Elevate(p Priority) error
}

// NoopElevator ignores elevation requests. Useful in tests and on
// platforms without a real-time scheduling class.
type NoopElevator struct{}

// Elevate does nothing.
func (NoopElevator) Elevate(Priority) error {
	return nil
}

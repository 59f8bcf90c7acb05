//go:build !linux

package sched

import (
	"github.com/tphakala/audiopipe/internal/errors"
)

// RealtimeElevator has no real-time class to request on this platform.
type RealtimeElevator struct{}

// NewElevator returns the platform elevator.
func NewElevator() Elevator {
	return RealtimeElevator{}
}

// Elevate reports elevation as unavailable; PriorityNormal is a no-op.
func (RealtimeElevator) Elevate(p Priority) error {
	if p == PriorityNormal {
		return nil
	}
	return errors.Newf("real-time priority not supported on this platform").
		Component("sched").
		Category(errors.CategoryScheduling).
		Context("priority", p.String()).
		Build()
}

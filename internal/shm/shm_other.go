//go:build !linux

package shm

import (
	"github.com/tphakala/audiopipe/internal/errors"
)

// Create allocates a heap-backed segment. Without memfd support the
// segment is only visible inside this process; the descriptor carries
// FD -1 so callers can tell it cannot be mapped remotely.
func Create(name string, size int) (*Segment, error) {
	if size <= 0 {
		return nil, errors.Newf("invalid segment size %d", size).
			Component("shm").
			Category(errors.CategoryValidation).
			Context("name", name).
			Build()
	}
	return &Segment{name: name, fd: -1, mem: make([]byte, size)}, nil
}

// Attach is not available for heap-backed segments.
func Attach(desc Descriptor) (*Segment, error) {
	return nil, errors.Newf("cannot attach segment %q on this platform", desc.Name).
		Component("shm").
		Category(errors.CategorySharedMemory).
		Build()
}

// Close releases the segment.
func (s *Segment) Close() error {
	s.mem = nil
	return nil
}

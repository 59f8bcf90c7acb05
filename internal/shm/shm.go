// Package shm manages the shared-memory segments backing the capture
// queues. On linux segments are anonymous memfd regions that a remote
// consumer can map from the descriptor's file descriptor; elsewhere a
// heap-backed segment with in-process visibility is used.
package shm

// Descriptor identifies a segment for handle transport to a consumer
// process. FD is -1 when the segment cannot be shared across processes.
type Descriptor struct {
	Name string
	FD   int
	Size int
}

// Segment is one mapped shared-memory region.
type Segment struct {
	name string
	fd   int
	mem  []byte
}

// Name returns the identifier the segment was created with.
func (s *Segment) Name() string {
	return s.name
}

// Size returns the size of the region in bytes.
func (s *Segment) Size() int {
	return len(s.mem)
}

// Bytes returns the mapped region. The slice stays valid until Close.
func (s *Segment) Bytes() []byte {
	return s.mem
}

// Descriptor returns the transport descriptor for this segment.
func (s *Segment) Descriptor() Descriptor {
	return Descriptor{Name: s.name, FD: s.fd, Size: len(s.mem)}
}

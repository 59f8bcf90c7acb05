package fmq

import (
	"github.com/tphakala/audiopipe/internal/shm"
)

// Descriptor carries everything a remote consumer needs to map and attach
// a queue: the shared-memory segment handle plus the queue geometry.
type Descriptor struct {
	Segment    shm.Descriptor
	Capacity   uint64
	RecordSize uint32
}

// DataQueue is the byte-oriented SPSC ring the capture thread writes audio
// frames into. It is format-agnostic; capacity is fixed at creation. Writes
// never block and never overwrite unread data.
type DataQueue struct {
	r *ring
}

// NewDataQueue creates a data queue with the given capacity in bytes. The
// event-flag word for the session lives inside this queue's header.
func NewDataQueue(capacity int) (*DataQueue, error) {
	r, err := newRing("audiopipe-data", uint64(capacity), 1)
	if err != nil {
		return nil, err
	}
	return &DataQueue{r: r}, nil
}

// AttachDataQueue maps an existing data queue from its descriptor. This is
// the consumer-side entry point.
func AttachDataQueue(desc Descriptor) (*DataQueue, error) {
	seg, err := shm.Attach(desc.Segment)
	if err != nil {
		return nil, err
	}
	r, err := attachRing(seg)
	if err != nil {
		_ = seg.Close()
		return nil, err
	}
	return &DataQueue{r: r}, nil
}

// Capacity returns the fixed queue capacity in bytes.
func (q *DataQueue) Capacity() int {
	return int(q.r.capacity)
}

// AvailableToWrite returns the current free space in bytes. Producer side
// only; never blocks.
func (q *DataQueue) AvailableToWrite() int {
	return int(q.r.availableToWrite())
}

// AvailableToRead returns the bytes currently queued.
func (q *DataQueue) AvailableToRead() int {
	return int(q.r.availableToRead())
}

// Write copies p into the queue. It returns false, writing nothing, if p
// exceeds the current free space.
func (q *DataQueue) Write(p []byte) bool {
	return q.r.write(p)
}

// Read drains up to len(p) bytes into p, returning the count moved.
// Consumer side only.
func (q *DataQueue) Read(p []byte) int {
	return q.r.read(p)
}

// EventFlagWord exposes the shared word the session's event flag operates
// on. The word is part of the queue header so both sides map it together
// with the data.
func (q *DataQueue) EventFlagWord() *uint32 {
	return q.r.flagWord()
}

// Descriptor returns the transport descriptor for the queue.
func (q *DataQueue) Descriptor() Descriptor {
	return Descriptor{
		Segment:    q.r.seg.Descriptor(),
		Capacity:   q.r.capacity,
		RecordSize: 1,
	}
}

// Close releases the underlying segment.
func (q *DataQueue) Close() error {
	return q.r.close()
}

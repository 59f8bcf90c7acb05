package fmq

import (
	"github.com/tphakala/audiopipe/internal/errors"
	"github.com/tphakala/audiopipe/internal/shm"
)

// StatusQueue carries fixed-size status records from the capture thread to
// the consumer. With depth 1 it acts as a one-slot mailbox: a write fails
// while the previous record is unconsumed, which is the backpressure signal.
type StatusQueue struct {
	r *ring
}

// NewStatusQueue creates a status queue holding up to depth records of
// recordSize bytes each.
func NewStatusQueue(depth, recordSize int) (*StatusQueue, error) {
	if depth <= 0 || recordSize <= 0 {
		return nil, errors.Newf("invalid status queue geometry: depth=%d recordSize=%d", depth, recordSize).
			Component("fmq").
			Category(errors.CategoryValidation).
			Build()
	}
	r, err := newRing("audiopipe-status", uint64(depth)*uint64(recordSize), uint32(recordSize))
	if err != nil {
		return nil, err
	}
	return &StatusQueue{r: r}, nil
}

// AttachStatusQueue maps an existing status queue from its descriptor.
func AttachStatusQueue(desc Descriptor) (*StatusQueue, error) {
	seg, err := shm.Attach(desc.Segment)
	if err != nil {
		return nil, err
	}
	r, err := attachRing(seg)
	if err != nil {
		_ = seg.Close()
		return nil, err
	}
	if r.record == 0 || r.record != desc.RecordSize {
		_ = seg.Close()
		return nil, errors.Newf("status queue record size mismatch: header=%d descriptor=%d", r.record, desc.RecordSize).
			Component("fmq").
			Category(errors.CategoryValidation).
			Build()
	}
	return &StatusQueue{r: r}, nil
}

// RecordSize returns the fixed size of one record in bytes.
func (q *StatusQueue) RecordSize() int {
	return int(q.r.record)
}

// Depth returns the number of records the queue can hold.
func (q *StatusQueue) Depth() int {
	return int(q.r.capacity / uint64(q.r.record))
}

// WriteRecord appends one record. p must be exactly one record long. It
// returns false, writing nothing, when the queue is full.
func (q *StatusQueue) WriteRecord(p []byte) bool {
	if len(p) != int(q.r.record) {
		return false
	}
	return q.r.write(p)
}

// ReadRecord removes one record into p, which must be exactly one record
// long. It returns false when the queue is empty.
func (q *StatusQueue) ReadRecord(p []byte) bool {
	if len(p) != int(q.r.record) {
		return false
	}
	if q.r.availableToRead() < uint64(q.r.record) {
		return false
	}
	q.r.read(p)
	return true
}

// Descriptor returns the transport descriptor for the queue.
func (q *StatusQueue) Descriptor() Descriptor {
	return Descriptor{
		Segment:    q.r.seg.Descriptor(),
		Capacity:   q.r.capacity,
		RecordSize: q.r.record,
	}
}

// Close releases the underlying segment.
func (q *StatusQueue) Close() error {
	return q.r.close()
}

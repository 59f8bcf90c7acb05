package fmq

import (
	"sync/atomic"
	"unsafe"

	"github.com/tphakala/audiopipe/internal/errors"
	"github.com/tphakala/audiopipe/internal/shm"
)

// Shared header layout, see package doc.
const (
	headerSize    = 64
	offCapacity   = 0
	offWidx       = 8
	offRidx       = 16
	offFlagWord   = 24
	offRecordSize = 28
)

// maxCapacity caps a single queue at 1 GiB, far beyond any sane
// frameSize * framesCount request.
const maxCapacity = 1 << 30

// ring is the SPSC core shared by DataQueue and StatusQueue. The write and
// read indices are monotonic 64-bit counters living in the shared header;
// widx is stored only by the producer, ridx only by the consumer, both with
// sequentially consistent atomics, so no mutex guards the payload.
type ring struct {
	seg      *shm.Segment
	mem      []byte
	capacity uint64
	record   uint32
}

func newRing(name string, capacity uint64, recordSize uint32) (*ring, error) {
	if capacity == 0 || capacity > maxCapacity {
		return nil, errors.Newf("queue capacity %d out of range", capacity).
			Component("fmq").
			Category(errors.CategoryValidation).
			Context("queue", name).
			Build()
	}
	if recordSize == 0 || capacity%uint64(recordSize) != 0 {
		return nil, errors.Newf("capacity %d is not a multiple of record size %d", capacity, recordSize).
			Component("fmq").
			Category(errors.CategoryValidation).
			Context("queue", name).
			Build()
	}

	seg, err := shm.Create(name, headerSize+int(capacity))
	if err != nil {
		return nil, err
	}

	r := &ring{seg: seg, mem: seg.Bytes(), capacity: capacity, record: recordSize}
	*r.u64(offCapacity) = capacity
	*r.u32(offRecordSize) = recordSize
	return r, nil
}

func attachRing(seg *shm.Segment) (*ring, error) {
	mem := seg.Bytes()
	if len(mem) < headerSize {
		return nil, errors.Newf("segment too small for queue header: %d bytes", len(mem)).
			Component("fmq").
			Category(errors.CategoryValidation).
			Build()
	}
	r := &ring{seg: seg, mem: mem}
	r.capacity = *r.u64(offCapacity)
	r.record = *r.u32(offRecordSize)
	if r.capacity == 0 || int(r.capacity) != len(mem)-headerSize {
		return nil, errors.Newf("queue header capacity %d does not match segment size %d", r.capacity, len(mem)).
			Component("fmq").
			Category(errors.CategoryValidation).
			Build()
	}
	return r, nil
}

func (r *ring) u64(off int) *uint64 {
	return (*uint64)(unsafe.Pointer(&r.mem[off]))
}

func (r *ring) u32(off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&r.mem[off]))
}

func (r *ring) flagWord() *uint32 {
	return r.u32(offFlagWord)
}

func (r *ring) data() []byte {
	return r.mem[headerSize:]
}

func (r *ring) availableToWrite() uint64 {
	w := atomic.LoadUint64(r.u64(offWidx))
	rd := atomic.LoadUint64(r.u64(offRidx))
	return r.capacity - (w - rd)
}

func (r *ring) availableToRead() uint64 {
	w := atomic.LoadUint64(r.u64(offWidx))
	rd := atomic.LoadUint64(r.u64(offRidx))
	return w - rd
}

// write copies p into the ring, all or nothing. The index store publishes
// the payload, so it must come last.
func (r *ring) write(p []byte) bool {
	n := uint64(len(p))
	if n == 0 {
		return true
	}
	if n > r.availableToWrite() {
		return false
	}
	w := atomic.LoadUint64(r.u64(offWidx))
	pos := w % r.capacity
	data := r.data()
	first := min(n, r.capacity-pos)
	copy(data[pos:pos+first], p[:first])
	copy(data, p[first:])
	atomic.StoreUint64(r.u64(offWidx), w+n)
	return true
}

// read drains up to len(p) bytes, returning the count moved.
func (r *ring) read(p []byte) int {
	w := atomic.LoadUint64(r.u64(offWidx))
	rd := atomic.LoadUint64(r.u64(offRidx))
	n := min(uint64(len(p)), w-rd)
	if n == 0 {
		return 0
	}
	pos := rd % r.capacity
	data := r.data()
	first := min(n, r.capacity-pos)
	copy(p[:first], data[pos:pos+first])
	copy(p[first:n], data[:n-first])
	atomic.StoreUint64(r.u64(offRidx), rd+n)
	return int(n)
}

func (r *ring) close() error {
	if r.seg == nil {
		return nil
	}
	err := r.seg.Close()
	r.seg = nil
	r.mem = nil
	return err
}

// Package fmq implements the fast-message-queue primitives of the capture
// pipeline: fixed-capacity, lock-free, single-producer/single-consumer ring
// queues over shared memory, and the event flag used to signal between the
// two sides without ever taking a mutex.
//
// Layout of a queue segment:
//
//	offset 0   capacity   uint64  data area size in bytes
//	offset 8   widx       uint64  monotonic write index (atomic)
//	offset 16  ridx       uint64  monotonic read index (atomic)
//	offset 24  flag word  uint32  event flag bits (atomic)
//	offset 28  recordSize uint32  record granularity, 1 for byte queues
//	offset 64  data area
//
// Indices never wrap; the position inside the data area is idx % capacity.
// The producer publishes widx with a release store only after the payload
// copy is complete, and the consumer publishes ridx likewise, so the
// index pair is the only synchronization the payload needs.
//
// The event flag is a 32-bit bitmask living inside the data queue's header.
// Wake atomically ORs bits in and releases waiters; Wait blocks with a
// bounded timeout for any bit of its mask and clears the bits it observed.
// Wakes coalesce: multiple wakes before a wait collapse into one observable
// signal. On linux waiters block on a futex so a consumer in another
// process mapping the same segment can participate; other platforms fall
// back to a bounded poll with the same semantics.
package fmq

package fmq

import (
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/tphakala/audiopipe/internal/errors"
)

// Event flag bits. The producer side waits on FlagNotFull before writing,
// the consumer side waits on FlagNotEmpty before reading.
const (
	FlagNotFull  uint32 = 1 << 0
	FlagNotEmpty uint32 = 1 << 1
)

// EventFlag is a shared atomic bitmask supporting blocking wait-for-any-bit
// and non-blocking set-and-wake. It is a coalescing condition signal, not a
// queue of events. The word it operates on lives in shared memory so both
// sides of a queue, possibly in different processes, see the same bits.
type EventFlag struct {
	word *uint32
}

// CreateEventFlag wraps the given word, which must be 4-byte aligned.
func CreateEventFlag(word *uint32) (*EventFlag, error) {
	if word == nil {
		return nil, errors.Newf("event flag word is nil").
			Component("fmq").
			Category(errors.CategoryValidation).
			Build()
	}
	if uintptr(unsafe.Pointer(word))%4 != 0 {
		return nil, errors.Newf("event flag word is not 4-byte aligned").
			Component("fmq").
			Category(errors.CategoryValidation).
			Build()
	}
	return &EventFlag{word: word}, nil
}

// Wait blocks up to timeout for any bit in mask to become set. It returns
// the bits it observed, after clearing them from the word, or 0 on timeout.
// A 0 return can also be spurious; callers re-check and wait again.
func (f *EventFlag) Wait(mask uint32, timeout time.Duration) uint32 {
	deadline := time.Now().Add(timeout)
	for {
		// Clearing unconditionally is safe: each mask bit has exactly
		// one waiter role.
		old := atomic.AndUint32(f.word, ^mask)
		if bits := old & mask; bits != 0 {
			return bits
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0
		}
		futexWait(f.word, old&^mask, remaining)
	}
}

// Wake atomically ORs mask into the word and releases any blocked waiters.
// It never blocks. An error from the wake syscall is returned for the
// caller to log; it does not affect the flag state.
func (f *EventFlag) Wake(mask uint32) error {
	atomic.OrUint32(f.word, mask)
	return futexWake(f.word, 1<<30)
}

// Delete releases waiters still blocked on the flag and detaches it from
// the shared word. The flag must not be used afterwards.
func (f *EventFlag) Delete() error {
	if f.word == nil {
		return errors.Newf("event flag already deleted").
			Component("fmq").
			Category(errors.CategoryState).
			Build()
	}
	err := f.Wake(FlagNotFull | FlagNotEmpty)
	f.word = nil
	return err
}

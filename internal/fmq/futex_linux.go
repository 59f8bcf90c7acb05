//go:build linux

package fmq

import (
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Futex operation codes from the Linux uapi (include/uapi/linux/futex.h);
// x/sys/unix exports SYS_FUTEX but not these op constants.
const (
	futexOpWait = 0
	futexOpWake = 1
)

// futexWait blocks until the word no longer holds val, a waker releases it,
// or the timeout expires. The futex is not marked private because the word
// may be mapped by a consumer in another process.
func futexWait(word *uint32, val uint32, timeout time.Duration) {
	ts := unix.NsecToTimespec(timeout.Nanoseconds())
	_, _, _ = unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(word)),
		uintptr(futexOpWait),
		uintptr(val),
		uintptr(unsafe.Pointer(&ts)),
		0, 0,
	)
	// EAGAIN, EINTR and ETIMEDOUT are all handled by the caller's
	// re-check loop.
}

// futexWake releases up to n waiters blocked on the word.
func futexWake(word *uint32, n int) error {
	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(word)),
		uintptr(futexOpWake),
		uintptr(n),
		0, 0, 0,
	)
	if errno != 0 {
		return errno
	}
	return nil
}

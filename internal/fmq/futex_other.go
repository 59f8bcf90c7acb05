//go:build !linux

package fmq

import (
	"sync/atomic"
	"time"
)

// pollInterval bounds the wake-up latency of the fallback wait.
const pollInterval = time.Millisecond

// futexWait polls the word until it no longer holds val or the timeout
// expires. Semantics match the futex path: spurious returns are fine, the
// caller re-checks.
func futexWait(word *uint32, val uint32, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for atomic.LoadUint32(word) == val {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		if remaining > pollInterval {
			remaining = pollInterval
		}
		time.Sleep(remaining)
	}
}

// futexWake is a no-op in the polling fallback; waiters observe the word
// on their next poll tick.
func futexWake(_ *uint32, _ int) error {
	return nil
}

package fmq

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEventFlagValidation(t *testing.T) {
	_, err := CreateEventFlag(nil)
	require.Error(t, err)

	var word uint32
	flag, err := CreateEventFlag(&word)
	require.NoError(t, err)
	require.NotNil(t, flag)
}

func TestEventFlagWakeBeforeWait(t *testing.T) {
	var word uint32
	flag, err := CreateEventFlag(&word)
	require.NoError(t, err)

	require.NoError(t, flag.Wake(FlagNotFull))

	bits := flag.Wait(FlagNotFull, time.Second)
	assert.Equal(t, FlagNotFull, bits)
	// The wait consumed the bit.
	assert.Equal(t, uint32(0), atomic.LoadUint32(&word))
}

func TestEventFlagWaitTimeout(t *testing.T) {
	var word uint32
	flag, err := CreateEventFlag(&word)
	require.NoError(t, err)

	start := time.Now()
	bits := flag.Wait(FlagNotEmpty, 50*time.Millisecond)
	elapsed := time.Since(start)

	assert.Equal(t, uint32(0), bits)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestEventFlagWakeReleasesWaiter(t *testing.T) {
	var word uint32
	flag, err := CreateEventFlag(&word)
	require.NoError(t, err)

	got := make(chan uint32, 1)
	go func() {
		got <- flag.Wait(FlagNotEmpty, 5*time.Second)
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, flag.Wake(FlagNotEmpty))

	select {
	case bits := <-got:
		assert.Equal(t, FlagNotEmpty, bits)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not released by wake")
	}
}

func TestEventFlagWakesCoalesce(t *testing.T) {
	var word uint32
	flag, err := CreateEventFlag(&word)
	require.NoError(t, err)

	// Multiple wakes before a wait collapse into one signal.
	require.NoError(t, flag.Wake(FlagNotEmpty))
	require.NoError(t, flag.Wake(FlagNotEmpty))
	require.NoError(t, flag.Wake(FlagNotEmpty))

	assert.Equal(t, FlagNotEmpty, flag.Wait(FlagNotEmpty, time.Second))
	assert.Equal(t, uint32(0), flag.Wait(FlagNotEmpty, 20*time.Millisecond))
}

func TestEventFlagMasksAreIndependent(t *testing.T) {
	var word uint32
	flag, err := CreateEventFlag(&word)
	require.NoError(t, err)

	require.NoError(t, flag.Wake(FlagNotFull|FlagNotEmpty))

	assert.Equal(t, FlagNotFull, flag.Wait(FlagNotFull, time.Second))
	// The other bit is untouched.
	assert.Equal(t, FlagNotEmpty, flag.Wait(FlagNotEmpty, time.Second))
}

func TestEventFlagDelete(t *testing.T) {
	var word uint32
	flag, err := CreateEventFlag(&word)
	require.NoError(t, err)

	require.NoError(t, flag.Delete())
	require.Error(t, flag.Delete())
}

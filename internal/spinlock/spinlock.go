// Package spinlock provides a small test-and-set lock for critical sections
// that last well under a microsecond, where parking on a sync.Mutex would
// cost more than the work it protects.
package spinlock

import (
	"runtime"
	_ "unsafe" // for go:linkname

	"go.uber.org/atomic"
)

const (
	// spinsBeforeYield is the number of failed attempts after which Lock
	// starts handing the processor back to the scheduler between attempts.
	spinsBeforeYield = 100

	// pauseCycles is how many PAUSE (or YIELD) instructions run between
	// attempts while spinning. Same as the runtime's own mutex spin.
	pauseCycles = 30
)

//go:linkname procyield runtime.procyield
func procyield(cycles uint32)

// Lock is a spin lock. The zero value is unlocked. A Lock must not be copied
// after first use.
type Lock struct {
	locked atomic.Bool
}

// TryLock acquires the lock if it is free and reports whether it did.
// It never waits.
func (l *Lock) TryLock() bool {
	// Read first so contended callers do not bounce the cache line with
	// failing CAS attempts.
	return !l.locked.Load() && l.locked.CompareAndSwap(false, true)
}

// Lock acquires the lock. It spins with a CPU pause hint for the first
// attempts, then yields to the scheduler between attempts.
func (l *Lock) Lock() {
	for tries := 0; ; tries++ {
		if l.TryLock() {
			return
		}
		if tries < spinsBeforeYield {
			procyield(pauseCycles)
		} else {
			runtime.Gosched()
		}
	}
}

// Unlock releases the lock. Unlocking an unlocked Lock is a programming
// error and panics.
func (l *Lock) Unlock() {
	if !l.locked.CompareAndSwap(true, false) {
		panic("spinlock: unlock of unlocked lock")
	}
}

// Locked reports whether the lock is currently held by someone.
func (l *Lock) Locked() bool {
	return l.locked.Load()
}

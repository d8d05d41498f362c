package corelocal

import (
	"runtime"

	"go.uber.org/atomic"
	"golang.org/x/sys/cpu"
)

type hintSlot struct {
	v atomic.Uint64
	_ cpu.CacheLinePad
}

// Hint is a per-P cache of one small integer. It stands in for a
// thread-local variable: each scheduler P reads and writes its own slot, and
// a goroutine that migrates between Ps simply sees another P's value. Every
// slot starts at 0.
//
// If GOMAXPROCS grows after the Hint is created, the extra Ps share slots
// modulo the original size.
type Hint struct {
	slots []hintSlot
}

// NewHint returns a Hint with one slot per P.
func NewHint() *Hint {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	return &Hint{slots: make([]hintSlot, n)}
}

func (h *Hint) slot() *hintSlot {
	return &h.slots[ProcID()%len(h.slots)]
}

// Load returns the value cached for the caller's P.
func (h *Hint) Load() int {
	return int(h.slot().v.Load())
}

// Store caches v for the caller's P.
func (h *Hint) Store(v int) {
	h.slot().v.Store(uint64(v))
}

package corelocal

import (
	"fmt"
	"math/rand/v2"
	"runtime"
)

// minShift keeps arrays at 8 slots or more, even on small machines.
const minShift = 3

// Array holds one T per core slot. The number of slots is the smallest power
// of two that is at least 8 and at least the number of CPUs. T should be
// padded to a cache line to keep slots from sharing one.
type Array[T any] struct {
	data     []T
	shift    int
	provider Provider
}

// NewArray returns an Array sized for runtime.NumCPU() that resolves slots
// through p. A nil p means ProcProvider.
func NewArray[T any](p Provider) *Array[T] {
	return newArray[T](p, runtime.NumCPU())
}

func newArray[T any](p Provider, numCPUs int) *Array[T] {
	if p == nil {
		p = ProcProvider{}
	}
	shift := minShift
	for 1<<shift < numCPUs {
		shift++
	}
	return &Array[T]{
		data:     make([]T, 1<<shift),
		shift:    shift,
		provider: p,
	}
}

// Size returns the number of slots. It is always a power of two.
func (a *Array[T]) Size() int {
	return 1 << a.shift
}

// Access returns the slot for the core the caller is running on.
func (a *Array[T]) Access() *T {
	elem, _ := a.AccessElementAndIndex()
	return elem
}

// AccessElementAndIndex returns the slot for the caller's core together with
// its index. Callers may cache the index; a goroutine that moves to another
// core keeps working, it just stops being local.
func (a *Array[T]) AccessElementAndIndex() (*T, int) {
	var idx int
	if cpu := a.provider.CoreID(); cpu < 0 {
		idx = rand.IntN(a.Size())
	} else {
		idx = BottomNBits(cpu, a.shift)
	}
	return a.AccessAtCore(idx), idx
}

// AccessAtCore returns the slot at idx. idx outside [0, Size()) is a
// programming error and panics.
func (a *Array[T]) AccessAtCore(idx int) *T {
	if idx < 0 || idx >= len(a.data) {
		panic(fmt.Errorf("corelocal: slot %d out of range [0, %d)", idx, len(a.data)))
	}
	return &a.data[idx]
}

// BottomNBits keeps the lowest nbits bits of v and clears the rest.
func BottomNBits(v, nbits int) int {
	if nbits < 0 || nbits >= 63 {
		panic(fmt.Errorf("corelocal: invalid bit count %d", nbits))
	}
	return v & (1<<nbits - 1)
}

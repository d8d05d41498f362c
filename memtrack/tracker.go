package memtrack

import "go.uber.org/atomic"

// AllocTracker forwards one arena's block allocations to a Budget. It
// satisfies arena.Tracker.
//
// Allocate may be called concurrently. DoneAllocating and FreeMem each take
// effect at most once.
type AllocTracker struct {
	budget         *Budget
	bytesAllocated atomic.Int64
	doneAllocating atomic.Bool
	freed          atomic.Bool
}

// NewAllocTracker returns a tracker charging b. A nil or disabled budget
// makes every call a no-op.
func NewAllocTracker(b *Budget) *AllocTracker {
	return &AllocTracker{budget: b}
}

// Allocate charges bytes to the budget.
func (t *AllocTracker) Allocate(bytes int) {
	if !t.budget.Enabled() {
		return
	}
	t.bytesAllocated.Add(int64(bytes))
	t.budget.ReserveMem(int64(bytes))
}

// DoneAllocating tells the budget that this tracker's memory will not grow
// any further.
func (t *AllocTracker) DoneAllocating() {
	if !t.budget.Enabled() {
		return
	}
	if t.doneAllocating.CompareAndSwap(false, true) {
		t.budget.ScheduleFreeMem(t.bytesAllocated.Load())
	}
}

// FreeMem returns everything charged so far to the budget, calling
// DoneAllocating first if needed.
func (t *AllocTracker) FreeMem() {
	if !t.budget.Enabled() {
		return
	}
	t.DoneAllocating()
	if t.freed.CompareAndSwap(false, true) {
		t.budget.FreeMem(t.bytesAllocated.Load())
	}
}

// IsFreed reports whether the memory has been returned, or there was never
// a budget to return it to.
func (t *AllocTracker) IsFreed() bool {
	return !t.budget.Enabled() || t.freed.Load()
}

// BytesAllocated returns the bytes charged by this tracker.
func (t *AllocTracker) BytesAllocated() int64 {
	return t.bytesAllocated.Load()
}

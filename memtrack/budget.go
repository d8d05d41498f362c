// Package memtrack charges arena memory against a shared budget, so that
// many arenas can be held under one memory limit.
package memtrack

import (
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

// Budget accounts memory reserved by any number of trackers against a limit.
// Reserved memory is "active" until its owner is done allocating, and
// "used" until it is freed. A zero limit disables the budget.
//
// All methods are safe for concurrent use.
type Budget struct {
	limit  int64
	used   atomic.Int64
	active atomic.Int64
	logger logrus.FieldLogger
}

// NewBudget creates a Budget with the given limit in bytes. A nil logger
// means logrus.StandardLogger().
func NewBudget(limit int64, logger logrus.FieldLogger) *Budget {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Budget{limit: limit, logger: logger}
}

// Enabled reports whether the budget has a limit.
func (b *Budget) Enabled() bool {
	return b != nil && b.limit > 0
}

// Limit returns the budget limit in bytes.
func (b *Budget) Limit() int64 {
	return b.limit
}

// ReserveMem charges n bytes as both used and active.
func (b *Budget) ReserveMem(n int64) {
	if !b.Enabled() {
		return
	}
	used := b.used.Add(n)
	b.active.Add(n)
	if used > b.limit && used-n <= b.limit {
		b.logger.WithFields(logrus.Fields{
			"action": "memtrack_reserve",
			"used":   humanize.IBytes(uint64(used)),
			"limit":  humanize.IBytes(uint64(b.limit)),
		}).Warn("memory budget exceeded")
	}
}

// ScheduleFreeMem marks n bytes as no longer active. They stay used until
// FreeMem.
func (b *Budget) ScheduleFreeMem(n int64) {
	if !b.Enabled() {
		return
	}
	b.active.Sub(n)
}

// FreeMem returns n used bytes to the budget.
func (b *Budget) FreeMem(n int64) {
	if !b.Enabled() {
		return
	}
	b.used.Sub(n)
}

// MemoryUsage returns the bytes currently charged to the budget.
func (b *Budget) MemoryUsage() int64 {
	return b.used.Load()
}

// ActiveMemoryUsage returns the charged bytes whose owners may still grow.
func (b *Budget) ActiveMemoryUsage() int64 {
	return b.active.Load()
}

// ShouldFlush reports whether owners should stop growing and hand their
// memory back: either everything charged reached the limit, or active
// memory passed seven eighths of it.
func (b *Budget) ShouldFlush() bool {
	if !b.Enabled() {
		return false
	}
	if b.active.Load() > b.limit-b.limit/8 {
		return true
	}
	return b.used.Load() >= b.limit
}

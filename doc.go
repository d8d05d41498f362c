// Package arena implements a block-based bump allocator (memory arena) and a
// shard-cached variant that is safe for concurrent use.
//
// # Overview
//
// An arena hands out byte ranges from large blocks and frees them all at
// once. There is no per-allocation free. This suits memory whose lifetime is
// tied to one container, such as a write buffer or an index being built:
//
//   - many small allocations, freed together
//   - predictable allocation cost with no GC pressure per object
//   - a single accounting point for how much memory the container holds
//
// # Basic Usage
//
//	a := arena.NewArena(64 << 10)
//	defer a.Release()
//
//	key := a.Allocate(17)              // no alignment guarantee
//	hdr := a.AllocateAligned(32, 0, nil) // AlignUnit-aligned
//
//	// Typed helpers work with both arena kinds.
//	n := arena.Alloc[uint64](a)
//	s := arena.AllocSlice[int32](a, 100)
//
// # Memory Layout
//
// Every arena starts with a 2 KiB inline buffer, so arenas that only see a
// few small allocations never acquire a block. After that, memory comes from
// regular blocks of BlockSize bytes. Each active block is carved from both
// ends: aligned requests grow upwards from the low end and unaligned
// requests grow downwards from the high end. A request larger than a quarter
// of a block gets a block of its own (an "irregular" block) and leaves the
// active block untouched.
//
// With WithHugePageSize, regular blocks are taken from huge-page mappings
// when the system has huge pages reserved, and AllocateAligned can place a
// single request in its own huge-page mapping. Failures fall back to regular
// blocks. With WithMappedBlocks, regular and irregular blocks are anonymous
// mappings instead of Go heap slices.
//
// # Thread Safety
//
// Arena is not safe for concurrent use. ConcurrentArena is:
//
//	c := arena.NewConcurrentArena(1 << 20)
//	defer c.Release()
//	buf := c.Allocate(100) // from any goroutine
//
// ConcurrentArena keeps one shard per core. Each shard borrows a slice of
// the arena and serves small requests from it under its own spinlock. As
// long as a P has never seen contention, its requests go straight to the
// arena, so single-threaded use wastes nothing on shards.
//
// # Memory Accounting
//
// A Tracker passed WithTracker is charged for every block and freed once on
// Release. The memtrack package provides a Tracker that charges a shared
// memory budget. Stats, and the Prometheus Collector built on it, report the
// arena's counters.
//
// # Important Notes
//
//   - Memory is valid only until Release; allocating after Release panics
//   - Allocate and AllocateAligned panic when asked for n <= 0 bytes
//   - Returned memory is not zeroed unless it comes from a zeroing helper
//   - Arena memory is not scanned by the garbage collector, so it must not
//     hold the only reference to a Go heap object
package arena

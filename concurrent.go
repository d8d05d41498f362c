package arena

import (
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"golang.org/x/sys/cpu"

	"github.com/pavanmanishd/arena/v2/internal/corelocal"
	"github.com/pavanmanishd/arena/v2/internal/spinlock"
)

// maxShardBlockSize bounds what one shard may take from the arena at a time.
// With 64 cores and 1 MiB shard blocks, the arena would commit 64 MiB before
// holding any real data.
const maxShardBlockSize = 128 << 10

// ConcurrentArena is an Arena that is safe for concurrent use. Small
// requests are served from per-core shards that each borrow a slice of the
// arena, so concurrent callers rarely contend on one lock. Large requests,
// and all requests while there is no contention, go straight to the arena.
//
// Memory returned by a ConcurrentArena stays valid until Release.
type ConcurrentArena struct {
	_ cpu.CacheLinePad

	shardBlockSize int
	shards         *corelocal.Array[shard]
	// Per-P shard index. 0 means "never contended": such callers may
	// bypass the shards entirely.
	hint *corelocal.Hint

	arena   *Arena
	arenaMu spinlock.Lock

	// Copies of the arena counters, refreshed under arenaMu.
	arenaAllocatedAndUnused atomic.Int64
	memoryAllocatedBytes    atomic.Int64
	irregularBlockNum       atomic.Int64
	released                atomic.Bool

	_ cpu.CacheLinePad
}

// NewConcurrentArena creates a ConcurrentArena over an Arena built with the
// same blockSize and options. Each shard refills in chunks of
// min(128 KiB, BlockSize()/8) bytes.
func NewConcurrentArena(blockSize int, opts ...Option) *ConcurrentArena {
	o := buildOptions(opts)
	a := NewArena(blockSize, opts...)
	c := &ConcurrentArena{
		shardBlockSize: min(maxShardBlockSize, a.BlockSize()/8),
		shards:         corelocal.NewArray[shard](o.provider),
		hint:           corelocal.NewHint(),
		arena:          a,
	}
	c.fixup()
	return c
}

// Allocate returns n bytes with no alignment guarantee. It is safe for
// concurrent use and panics if n <= 0.
func (c *ConcurrentArena) Allocate(n int) []byte {
	if n <= 0 {
		panicInvalidSize(n)
	}
	return c.allocate(n, false, func() []byte {
		return c.arena.Allocate(n)
	})
}

// AllocateAligned returns n bytes whose first byte is AlignUnit-aligned. It
// is safe for concurrent use and panics if n <= 0. A non-zero hugePageSize
// always goes to the arena; see Arena.AllocateAligned.
func (c *ConcurrentArena) AllocateAligned(n, hugePageSize int, logger logrus.FieldLogger) []byte {
	if n <= 0 {
		panicInvalidSize(n)
	}
	rounded := alignUp(n, AlignUnit)
	b := c.allocate(rounded, hugePageSize != 0, func() []byte {
		return c.arena.AllocateAligned(rounded, hugePageSize, logger)
	})
	return b[:n:n]
}

func (c *ConcurrentArena) allocate(n int, forceArena bool, direct func() []byte) []byte {
	if c.released.Load() {
		panicReleased("allocate")
	}

	// Go straight to the arena if the request is large, or if this P has
	// never needed to repick and the arena lock is free right now. That
	// keeps the fragmentation cost of sharding at zero until there is
	// actual contention.
	idx := c.hint.Load()
	useArena := forceArena || n > c.shardBlockSize/4
	locked := false
	if !useArena && idx == 0 && c.shards.AccessAtCore(0).unused() == 0 {
		locked = c.arenaMu.TryLock()
		useArena = locked
	}
	if useArena {
		if !locked {
			c.arenaMu.Lock()
		}
		defer c.arenaMu.Unlock()
		b := direct()
		c.fixup()
		return b
	}
	return c.allocateFromShard(idx, n, direct)
}

func (c *ConcurrentArena) allocateFromShard(idx, n int, direct func() []byte) []byte {
	s := c.shards.AccessAtCore(idx & (c.shards.Size() - 1))
	if !s.mu.TryLock() {
		s = c.repick()
		s.mu.Lock()
	}
	defer s.mu.Unlock()

	avail := s.unused()
	if avail < n {
		var b []byte
		if avail, b = c.refill(s, n, direct); b != nil {
			return b
		}
	}
	return s.carve(n, avail)
}

// refill replaces the shard's region with a fresh one from the arena and
// returns its size. While the arena is still in its inline buffer, the
// request is served from the arena directly instead, and returned as b.
func (c *ConcurrentArena) refill(s *shard, n int, direct func() []byte) (avail int, b []byte) {
	c.arenaMu.Lock()
	defer c.arenaMu.Unlock()

	exact := int(c.arenaAllocatedAndUnused.Load())
	if exact >= n && c.arena.IsInInlineBlock() {
		// Keeps arenas that only ever see a few small allocations from
		// committing a whole block per shard.
		b = direct()
		c.fixup()
		return 0, b
	}

	// If what is left of the arena's current block is within a factor of
	// two of a shard block, take all of it rather than strand it.
	avail = c.shardBlockSize
	if exact >= c.shardBlockSize/2 && exact < c.shardBlockSize*2 {
		avail = exact
	}
	s.free = c.arena.AllocateAligned(avail, 0, nil)
	c.fixup()
	return avail, nil
}

func (c *ConcurrentArena) repick() *shard {
	s, idx := c.shards.AccessElementAndIndex()
	// Store a non-zero value even for shard 0, so this P no longer takes
	// the uncontended arena path.
	c.hint.Store(idx | c.shards.Size())
	return s
}

// fixup refreshes the cached arena counters. Must hold arenaMu.
func (c *ConcurrentArena) fixup() {
	c.arenaAllocatedAndUnused.Store(int64(c.arena.AllocatedAndUnused()))
	c.memoryAllocatedBytes.Store(int64(c.arena.MemoryAllocatedBytes()))
	c.irregularBlockNum.Store(int64(c.arena.IrregularBlockNum()))
}

func (c *ConcurrentArena) shardAllocatedAndUnused() int {
	total := 0
	for i := 0; i < c.shards.Size(); i++ {
		total += c.shards.AccessAtCore(i).unused()
	}
	return total
}

// ApproximateMemoryUsage returns the bytes held by the arena minus what is
// still unused in the arena and in the shards.
func (c *ConcurrentArena) ApproximateMemoryUsage() int {
	c.arenaMu.Lock()
	defer c.arenaMu.Unlock()
	return c.arena.ApproximateMemoryUsage() - c.shardAllocatedAndUnused()
}

// MemoryAllocatedBytes returns the total size of the inline buffer and all
// blocks. The value may lag concurrent allocations slightly.
func (c *ConcurrentArena) MemoryAllocatedBytes() int {
	return int(c.memoryAllocatedBytes.Load())
}

// AllocatedAndUnused returns the bytes allocated but not handed out, in the
// arena and in every shard. The value may lag concurrent allocations
// slightly.
func (c *ConcurrentArena) AllocatedAndUnused() int {
	return int(c.arenaAllocatedAndUnused.Load()) + c.shardAllocatedAndUnused()
}

// IrregularBlockNum returns how many blocks were sized to a single oversized
// request.
func (c *ConcurrentArena) IrregularBlockNum() int {
	return int(c.irregularBlockNum.Load())
}

// BlockSize returns the size of regular blocks.
func (c *ConcurrentArena) BlockSize() int {
	return c.arena.BlockSize()
}

// ShardBlockSize returns how many bytes a shard takes from the arena when it
// refills.
func (c *ConcurrentArena) ShardBlockSize() int {
	return c.shardBlockSize
}

// NumShards returns the number of per-core shards.
func (c *ConcurrentArena) NumShards() int {
	return c.shards.Size()
}

// Stats returns a snapshot of arena statistics with shard-held bytes counted
// as unused.
func (c *ConcurrentArena) Stats() Stats {
	c.arenaMu.Lock()
	defer c.arenaMu.Unlock()
	s := c.arena.Stats()
	unused := c.shardAllocatedAndUnused()
	s.AllocatedAndUnused += unused
	s.ApproximateMemoryUsage -= unused
	return s
}

// Release drops all memory, see Arena.Release. It must not run concurrently
// with allocations whose results are still in use. Releasing twice is a
// no-op.
func (c *ConcurrentArena) Release() {
	// Shards first, then the arena: the same order the refill path uses.
	for i := 0; i < c.shards.Size(); i++ {
		c.shards.AccessAtCore(i).mu.Lock()
	}
	c.arenaMu.Lock()
	defer func() {
		c.arenaMu.Unlock()
		for i := 0; i < c.shards.Size(); i++ {
			c.shards.AccessAtCore(i).mu.Unlock()
		}
	}()

	if c.released.Load() {
		return
	}
	for i := 0; i < c.shards.Size(); i++ {
		s := c.shards.AccessAtCore(i)
		s.free = nil
		s.remaining.Store(0)
	}
	c.arena.Release()
	c.released.Store(true)
	c.fixup()
}

// Released reports whether Release has been called.
func (c *ConcurrentArena) Released() bool {
	return c.released.Load()
}

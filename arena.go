package arena

import (
	"math"
	"unsafe"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/pavanmanishd/arena/v2/internal/mmap"
)

const (
	// InlineSize is the size of the buffer every arena starts with. The
	// first allocations are served from it before any block is acquired.
	InlineSize = 2048

	// MinBlockSize is the smallest block size an arena will use.
	MinBlockSize = 4096

	// MaxBlockSize is the largest block size an arena will use: 2 GiB, or
	// the largest aligned int on 32-bit platforms.
	MaxBlockSize = min(2<<30, math.MaxInt&^(AlignUnit-1))

	// AlignUnit is the alignment of memory returned by AllocateAligned. It
	// is the largest alignment any Go type requires on 64-bit platforms.
	AlignUnit = 8
)

// AlignUnit must be a power of two.
var _ [0]struct{} = [AlignUnit & (AlignUnit - 1)]struct{}{}

var sliceHeaderSize = int(unsafe.Sizeof([]byte(nil)))

// Arena is a bump allocator over a growing list of blocks. It is not safe
// for concurrent use; use ConcurrentArena for that.
//
// Each active block is carved from both ends: aligned requests grow upwards
// from the low end, unaligned requests grow downwards from the high end.
// Mixing both kinds therefore wastes no padding on unaligned ones.
//
// Memory returned by an Arena stays valid until Release.
type Arena struct {
	inline       []byte
	blockSize    int
	blocks       [][]byte
	hugeBlocks   []*mmap.Mapping
	mappedBlocks []*mmap.Mapping

	irregularBlockNum int

	// The active region is cur[alignedOff:unalignedOff].
	cur          []byte
	alignedOff   int
	unalignedOff int

	// Size of each huge-page backed block, 0 when huge pages are off.
	hugetlbSize  int
	blocksMemory int
	useMapped    bool

	tracker  Tracker
	logger   logrus.FieldLogger
	released bool
}

// NewArena creates an Arena whose regular blocks are OptimizeBlockSize(blockSize)
// bytes long.
func NewArena(blockSize int, opts ...Option) *Arena {
	o := buildOptions(opts)
	a := &Arena{
		blockSize: OptimizeBlockSize(blockSize),
		tracker:   o.tracker,
		logger:    o.logger,
		useMapped: o.mappedBlocks,
	}
	a.inline = newAlignedBlock(InlineSize)
	a.setActive(a.inline, 0, InlineSize)
	a.blocksMemory = InlineSize

	if mmap.HugePageSupported && o.hugePageSize > 0 {
		a.hugetlbSize = o.hugePageSize
		if a.blockSize > a.hugetlbSize {
			a.hugetlbSize = roundUp(a.blockSize, a.hugetlbSize)
		}
	}
	if a.tracker != nil {
		a.tracker.Allocate(InlineSize)
	}
	return a
}

// OptimizeBlockSize clamps blockSize into [MinBlockSize, MaxBlockSize] and
// rounds it up to a multiple of AlignUnit.
func OptimizeBlockSize(blockSize int) int {
	blockSize = max(MinBlockSize, blockSize)
	blockSize = min(MaxBlockSize, blockSize)
	return alignUp(blockSize, AlignUnit)
}

// Allocate returns n bytes with no alignment guarantee. The contents are
// not guaranteed to be zero. It panics if n <= 0.
func (a *Arena) Allocate(n int) []byte {
	if n <= 0 {
		panicInvalidSize(n)
	}
	if n <= a.unalignedOff-a.alignedOff {
		a.unalignedOff -= n
		return a.cur[a.unalignedOff : a.unalignedOff+n : a.unalignedOff+n]
	}
	return a.allocateFallback(n, false)
}

// AllocateAligned returns n bytes whose first byte is AlignUnit-aligned. It
// panics if n <= 0.
//
// If hugePageSize > 0 and the arena was built WithHugePageSize, the request
// gets its own huge-page mapping of n bytes rounded up to hugePageSize. If
// that fails, a warning goes to logger (or the arena's logger when nil) and
// the request is served from regular blocks.
func (a *Arena) AllocateAligned(n, hugePageSize int, logger logrus.FieldLogger) []byte {
	if n <= 0 {
		panicInvalidSize(n)
	}
	if a.released {
		panicReleased("AllocateAligned")
	}
	if a.hugetlbSize > 0 && hugePageSize > 0 {
		reserved := roundUp(n, hugePageSize)
		b, err := a.allocateFromHugePage(reserved)
		if err == nil {
			return b[:n:n]
		}
		if logger == nil {
			logger = a.logger
		}
		logger.WithError(err).WithFields(logrus.Fields{
			"action":   "arena_allocate_aligned",
			"bytes":    n,
			"reserved": humanize.IBytes(uint64(reserved)),
		}).Warn("fail to allocate huge TLB pages, falling back to regular blocks")
	}

	slop := a.alignedSlop()
	needed := n + slop
	if needed <= a.unalignedOff-a.alignedOff {
		start := a.alignedOff + slop
		a.alignedOff += needed
		return a.cur[start : start+n : start+n]
	}
	// A fresh block always starts aligned.
	return a.allocateFallback(n, true)
}

// alignedSlop is the padding needed to align the low cursor.
func (a *Arena) alignedSlop() int {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(a.cur))) + uintptr(a.alignedOff)
	if mod := int(addr & (AlignUnit - 1)); mod != 0 {
		return AlignUnit - mod
	}
	return 0
}

func (a *Arena) setActive(block []byte, alignedOff, unalignedOff int) {
	a.cur = block
	a.alignedOff = alignedOff
	a.unalignedOff = unalignedOff
}

func (a *Arena) allocateFallback(n int, aligned bool) []byte {
	if a.released {
		panicReleased("allocate")
	}
	if n > a.blockSize/4 {
		// More than a quarter of a block: give it a block of its own rather
		// than abandon the rest of the current one.
		a.irregularBlockNum++
		return a.allocateNewBlock(n)
	}

	// Whatever is left in the current block is wasted.
	var block []byte
	if a.hugetlbSize > 0 {
		b, err := a.allocateFromHugePage(a.hugetlbSize)
		if err != nil {
			a.logger.WithError(err).WithField("action", "arena_allocate_block").
				Debug("huge page block unavailable, using a regular block")
		}
		block = b
	}
	if block == nil {
		block = a.allocateNewBlock(a.blockSize)
	}

	size := len(block)
	if aligned {
		a.setActive(block, n, size)
		return block[:n:n]
	}
	a.setActive(block, 0, size-n)
	return block[size-n : size : size]
}

func (a *Arena) allocateNewBlock(n int) []byte {
	var block []byte
	if a.useMapped {
		m, err := mmap.AllocateLazyZeroed(n)
		if err == nil {
			a.mappedBlocks = append(a.mappedBlocks, m)
			block = m.Bytes()[:n:n]
		} else {
			a.logger.WithError(err).WithFields(logrus.Fields{
				"action": "arena_allocate_block",
				"bytes":  humanize.IBytes(uint64(n)),
			}).Warn("fail to map block, falling back to the Go heap")
		}
	}
	if block == nil {
		block = newAlignedBlock(n)
	}
	a.blocks = append(a.blocks, block)
	a.blocksMemory += n
	if a.tracker != nil {
		a.tracker.Allocate(n)
	}
	return block
}

func (a *Arena) allocateFromHugePage(n int) ([]byte, error) {
	m, err := mmap.AllocateHuge(n)
	if err != nil {
		return nil, err
	}
	a.hugeBlocks = append(a.hugeBlocks, m)
	a.blocksMemory += n
	if a.tracker != nil {
		a.tracker.Allocate(n)
	}
	b := m.Bytes()
	return b[:n:n], nil
}

// Release unmaps and drops every block, tells the tracker allocation is
// done and returns the tracked memory to it. Memory handed out by the arena
// must not be used afterwards, and any further allocation panics. Releasing
// twice is a no-op.
func (a *Arena) Release() {
	if a.released {
		return
	}
	a.released = true

	for _, list := range [][]*mmap.Mapping{a.hugeBlocks, a.mappedBlocks} {
		for _, m := range list {
			size := m.Len()
			if err := m.Release(); err != nil {
				a.logger.WithError(err).WithFields(logrus.Fields{
					"action": "arena_release",
					"bytes":  humanize.IBytes(uint64(size)),
				}).Error("fail to unmap block")
			}
		}
	}
	a.hugeBlocks, a.mappedBlocks, a.blocks = nil, nil, nil
	a.inline = nil
	a.setActive(nil, 0, 0)
	a.blocksMemory = 0

	if a.tracker != nil {
		a.tracker.DoneAllocating()
		a.tracker.FreeMem()
	}
}

// Released reports whether Release has been called.
func (a *Arena) Released() bool {
	return a.released
}

// roundUp rounds n up to a multiple of unit, which need not be a power of
// two.
func roundUp(n, unit int) int {
	return ((n-1)/unit + 1) * unit
}

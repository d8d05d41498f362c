package arena

import (
	"unsafe"

	"go.uber.org/atomic"
	"golang.org/x/sys/cpu"

	"github.com/pavanmanishd/arena/v2/internal/spinlock"
)

const cacheLineSize = unsafe.Sizeof(cpu.CacheLinePad{})

type shardState struct {
	mu spinlock.Lock
	// free[:remaining] is the unused part of a region borrowed from the
	// arena. Guarded by mu.
	free []byte
	// Written under mu, read without it by the statistics methods.
	remaining atomic.Int64
}

// shard is a per-core cache of arena memory, padded to exactly one cache
// line so neighbouring shards never share one.
type shard struct {
	shardState
	_ [cacheLineSize - unsafe.Sizeof(shardState{})]byte
}

// A shard must occupy exactly one cache line.
var _ [0]struct{} = [unsafe.Sizeof(shard{}) - cacheLineSize]struct{}{}

// carve takes n bytes from the shard, which must hold at least avail >= n
// free bytes. Requests that are a multiple of AlignUnit come from the low end
// so the low end stays aligned; the rest come from the high end.
func (s *shard) carve(n, avail int) []byte {
	s.remaining.Store(int64(avail - n))
	if n%AlignUnit == 0 {
		b := s.free[:n:n]
		s.free = s.free[n:]
		return b
	}
	return s.free[avail-n : avail : avail]
}

func (s *shard) unused() int {
	return int(s.remaining.Load())
}

package arena

import "github.com/pavanmanishd/arena/v2/internal/corelocal"

// CoreIDUnavailable is what a CoreIndexProvider returns when it cannot tell
// which core the caller runs on. ConcurrentArena then picks a shard at
// random.
const CoreIDUnavailable = corelocal.Unavailable

// CoreIndexProvider reports the core the calling goroutine currently runs on.
// ConcurrentArena only consults it after contention on a shard, so it may be
// moderately expensive.
type CoreIndexProvider interface {
	CoreID() int
}

var _ CoreIndexProvider = corelocal.ProcProvider{}

package arena

// Tracker is notified of every block the arena acquires, so the bytes can be
// charged against an external memory budget. See package memtrack for an
// implementation.
type Tracker interface {
	// Allocate records that bytes more memory was committed.
	Allocate(bytes int)
	// DoneAllocating signals that no more memory will be committed, so the
	// budget may stop counting it as growing.
	DoneAllocating()
	// FreeMem returns everything recorded so far to the budget. Calling it
	// more than once has no further effect.
	FreeMem()
	// IsFreed reports whether FreeMem has taken effect.
	IsFreed() bool
}

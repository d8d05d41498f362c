package corelocal

import (
	_ "unsafe" // for go:linkname
)

//go:linkname runtime_procPin runtime.procPin
func runtime_procPin() int

//go:linkname runtime_procUnpin runtime.procUnpin
func runtime_procUnpin()

// ProcID returns the id of the scheduler P the calling goroutine is running
// on, in [0, GOMAXPROCS). The goroutine may migrate as soon as ProcID
// returns, so callers must treat the value as a hint.
func ProcID() int {
	pid := runtime_procPin()
	runtime_procUnpin()
	return pid
}

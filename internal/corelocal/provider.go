// Package corelocal maps the calling goroutine to a slot in a small
// power-of-two array, so that concurrent callers mostly touch different
// slots.
package corelocal

// Unavailable is returned by a Provider that cannot tell which core the
// caller runs on.
const Unavailable = -1

// Provider reports the core the caller is currently running on, or
// Unavailable.
type Provider interface {
	CoreID() int
}

// ProcProvider uses the id of the scheduler P as the core id. It is always
// available and stable for as long as the goroutine is not rescheduled.
type ProcProvider struct{}

// CoreID implements Provider.
func (ProcProvider) CoreID() int {
	return ProcID()
}

// UnavailableProvider never knows the core id, so every lookup falls back
// to a random slot.
type UnavailableProvider struct{}

// CoreID implements Provider.
func (UnavailableProvider) CoreID() int {
	return Unavailable
}

// ProviderFunc adapts a plain function to Provider.
type ProviderFunc func() int

// CoreID implements Provider.
func (f ProviderFunc) CoreID() int {
	return f()
}

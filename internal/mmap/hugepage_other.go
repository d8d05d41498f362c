//go:build !linux

package mmap

// HugePageSupported reports whether AllocateHuge can succeed on this
// platform at all.
const HugePageSupported = false

func allocateHuge(length int) (*Mapping, error) {
	return nil, ErrHugePageUnsupported
}

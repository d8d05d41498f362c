//go:build linux

package mmap

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// HugePageSupported reports whether AllocateHuge can succeed on this
// platform at all.
const HugePageSupported = true

func allocateHuge(length int) (*Mapping, error) {
	data, err := unix.Mmap(-1, 0, length,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_HUGETLB)
	if err != nil {
		return nil, errors.Wrapf(err, "map %d bytes with MAP_HUGETLB", length)
	}
	return &Mapping{data: data, unmap: unix.Munmap}, nil
}

// Package mmap hands out anonymous memory mappings that live outside the Go
// heap, optionally backed by huge pages.
package mmap

import (
	mmapgo "github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// ErrHugePageUnsupported is returned by AllocateHuge on platforms without a
// huge-page mapping flag.
var ErrHugePageUnsupported = errors.New("huge page mappings are not supported on this platform")

// ErrEmptyMapping is returned when a mapping of zero or negative length is
// requested.
var ErrEmptyMapping = errors.New("mapping length must be positive")

// Mapping owns one anonymous mapping. Pass it by pointer; copying the struct
// would let two owners unmap the same region. Release unmaps it.
type Mapping struct {
	data  []byte
	unmap func([]byte) error
}

// AllocateHuge maps length bytes of anonymous memory backed by huge pages.
// length should be a multiple of the system huge page size. Huge pages must
// be reserved beforehand (for example vm.nr_hugepages on Linux), otherwise
// the mapping fails.
func AllocateHuge(length int) (*Mapping, error) {
	if length <= 0 {
		return nil, errors.Wrapf(ErrEmptyMapping, "huge mapping of %d bytes", length)
	}
	return allocateHuge(length)
}

// AllocateLazyZeroed maps length bytes of anonymous memory. Pages are zero
// and are only backed by physical memory once touched.
func AllocateLazyZeroed(length int) (*Mapping, error) {
	if length <= 0 {
		return nil, errors.Wrapf(ErrEmptyMapping, "anonymous mapping of %d bytes", length)
	}
	m, err := mmapgo.MapRegion(nil, length, mmapgo.RDWR, mmapgo.ANON, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "map %d anonymous bytes", length)
	}
	return &Mapping{
		data: m,
		unmap: func(b []byte) error {
			mm := mmapgo.MMap(b)
			return mm.Unmap()
		},
	}, nil
}

// Bytes returns the mapped region, or nil once released.
func (m *Mapping) Bytes() []byte {
	return m.data
}

// Len returns the length of the mapped region, or 0 once released.
func (m *Mapping) Len() int {
	return len(m.data)
}

// Release unmaps the region. Any slice obtained from Bytes must not be used
// afterwards. Releasing twice is a no-op.
func (m *Mapping) Release() error {
	if m.data == nil {
		return nil
	}
	data := m.data
	m.data = nil
	if err := m.unmap(data); err != nil {
		return errors.Wrapf(err, "unmap %d bytes", len(data))
	}
	return nil
}

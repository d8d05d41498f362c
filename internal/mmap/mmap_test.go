package mmap

import (
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateLazyZeroed(t *testing.T) {
	size := os.Getpagesize() * 3
	m, err := AllocateLazyZeroed(size)
	require.NoError(t, err)
	require.Equal(t, size, m.Len())

	b := m.Bytes()
	for i, c := range b {
		if c != 0 {
			t.Fatalf("byte %d = %#x, want zero", i, c)
		}
	}
	b[0], b[len(b)-1] = 0xaa, 0xbb
	assert.Equal(t, byte(0xaa), m.Bytes()[0])

	require.NoError(t, m.Release())
	assert.Nil(t, m.Bytes())
	assert.Zero(t, m.Len())
	assert.NoError(t, m.Release(), "second release is a no-op")
}

func TestAllocateEmpty(t *testing.T) {
	_, err := AllocateLazyZeroed(0)
	assert.Equal(t, ErrEmptyMapping, errors.Cause(err))

	_, err = AllocateHuge(-1)
	assert.Equal(t, ErrEmptyMapping, errors.Cause(err))
}

func TestAllocateHuge(t *testing.T) {
	const hugePage = 2 << 20

	m, err := AllocateHuge(hugePage)
	if !HugePageSupported {
		assert.Equal(t, ErrHugePageUnsupported, errors.Cause(err))
		return
	}
	if err != nil {
		// Most CI hosts reserve no huge pages.
		t.Skipf("no huge pages reserved: %v", err)
	}
	require.Equal(t, hugePage, m.Len())
	m.Bytes()[hugePage-1] = 1
	require.NoError(t, m.Release())
}

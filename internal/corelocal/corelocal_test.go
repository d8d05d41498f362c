package corelocal

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArraySize(t *testing.T) {
	tests := []struct {
		name    string
		numCPUs int
		want    int
	}{
		{"single cpu", 1, 8},
		{"exactly eight", 8, 8},
		{"nine rounds up", 9, 16},
		{"sixty four", 64, 64},
		{"odd count", 96, 128},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newArray[int](nil, tt.numCPUs)
			assert.Equal(t, tt.want, a.Size())
			assert.Len(t, a.data, tt.want)
		})
	}
}

func TestAccessUsesBottomBits(t *testing.T) {
	core := 0
	a := newArray[int](ProviderFunc(func() int { return core }), 8)

	for _, tt := range []struct{ core, idx int }{
		{0, 0}, {3, 3}, {7, 7}, {8, 0}, {13, 5}, {1027, 3},
	} {
		core = tt.core
		elem, idx := a.AccessElementAndIndex()
		assert.Equal(t, tt.idx, idx, "core %d", tt.core)
		assert.Same(t, a.AccessAtCore(tt.idx), elem)
		assert.Same(t, elem, a.Access())
	}
}

func TestAccessRandomWhenUnavailable(t *testing.T) {
	a := newArray[int](UnavailableProvider{}, 8)

	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		_, idx := a.AccessElementAndIndex()
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, a.Size())
		seen[idx] = true
	}
	// 1000 uniform draws over 8 slots miss one with negligible probability.
	assert.Len(t, seen, a.Size())
}

func TestAccessAtCoreOutOfRange(t *testing.T) {
	a := newArray[int](nil, 8)
	assert.Panics(t, func() { a.AccessAtCore(8) })
	assert.Panics(t, func() { a.AccessAtCore(-1) })
	assert.NotPanics(t, func() { a.AccessAtCore(7) })
}

func TestBottomNBits(t *testing.T) {
	assert.Equal(t, 0, BottomNBits(0xff, 0))
	assert.Equal(t, 0x7, BottomNBits(0xff, 3))
	assert.Equal(t, 0x5, BottomNBits(0x15, 3))
	assert.Panics(t, func() { BottomNBits(1, -1) })
}

func TestProcIDInRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		pid := ProcID()
		require.GreaterOrEqual(t, pid, 0)
		require.Less(t, pid, runtime.GOMAXPROCS(0))
	}
	pid := ProcProvider{}.CoreID()
	assert.GreaterOrEqual(t, pid, 0)
}

func TestHint(t *testing.T) {
	h := NewHint()
	assert.Len(t, h.slots, runtime.GOMAXPROCS(0))

	// Pin the test to one P so load sees what store wrote.
	prev := runtime.GOMAXPROCS(1)
	defer runtime.GOMAXPROCS(prev)

	assert.Equal(t, 0, h.Load())
	h.Store(9)
	assert.Equal(t, 9, h.Load())
}

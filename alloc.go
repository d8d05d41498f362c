package arena

import (
	"runtime"
	"unsafe"

	"github.com/sirupsen/logrus"
)

// Allocator is the allocation surface shared by Arena and ConcurrentArena.
type Allocator interface {
	// Allocate returns n bytes with no alignment guarantee.
	Allocate(n int) []byte
	// AllocateAligned returns n AlignUnit-aligned bytes, optionally from a
	// dedicated huge-page mapping.
	AllocateAligned(n, hugePageSize int, logger logrus.FieldLogger) []byte
	// BlockSize returns the size of regular blocks.
	BlockSize() int
}

var (
	_ Allocator = (*Arena)(nil)
	_ Allocator = (*ConcurrentArena)(nil)
)

// The typed helpers below place values in arena memory, which the garbage
// collector does not scan for pointers. T must therefore not contain Go
// pointers (pointers, slices, strings, maps, channels, funcs, interfaces)
// unless whatever they point to is kept alive some other way.

// Alloc returns a pointer to a zeroed T stored inside the arena.
// The returned pointer is valid as long as the arena hasn't been released.
func Alloc[T any](a Allocator) *T {
	b := allocFor[T](a, 1)
	if b == nil {
		return new(T)
	}
	clear(b)
	return (*T)(unsafe.Pointer(unsafe.SliceData(b)))
}

// AllocZeroed is identical to Alloc - provided for API consistency.
func AllocZeroed[T any](a Allocator) *T {
	return Alloc[T](a)
}

// AllocUninitialized returns a *T located in the arena without zeroing memory.
// This is faster than Alloc but the memory contents are undefined.
// Use with caution - ensure proper initialization before use.
func AllocUninitialized[T any](a Allocator) *T {
	b := allocFor[T](a, 1)
	if b == nil {
		return new(T)
	}
	return (*T)(unsafe.Pointer(unsafe.SliceData(b)))
}

// AllocSlice allocates a slice of n elements of type T inside the arena.
// The slice elements are not initialized (contain garbage data).
// Returns nil if n <= 0.
func AllocSlice[T any](a Allocator, n int) []T {
	if n <= 0 {
		return nil
	}
	b := allocFor[T](a, n)
	if b == nil {
		return make([]T, n)
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n)
}

// AllocSliceZeroed allocates a slice of n elements of type T with zeroed memory.
// This is slower than AllocSlice but ensures clean initialization.
func AllocSliceZeroed[T any](a Allocator, n int) []T {
	if n <= 0 {
		return nil
	}
	b := allocFor[T](a, n)
	if b == nil {
		return make([]T, n)
	}
	clear(b)
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n)
}

// PtrAndKeepAlive returns t and calls runtime.KeepAlive on the arena.
// This is useful to prevent the arena from being garbage collected
// while the pointer is still in use in unsafe code.
func PtrAndKeepAlive[T any](a Allocator, t *T) *T {
	runtime.KeepAlive(a)
	return t
}

// allocFor reserves room for n values of T. Zero-sized types get no arena
// memory; callers fall back to the Go heap, which has a shared zero-size
// object.
func allocFor[T any](a Allocator, n int) []byte {
	var zero T
	size := int(unsafe.Sizeof(zero)) * n
	if size == 0 {
		return nil
	}
	if unsafe.Alignof(zero) == 1 {
		return a.Allocate(size)
	}
	return a.AllocateAligned(size, 0, nil)
}

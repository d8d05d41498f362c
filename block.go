package arena

import "unsafe"

// alignOffset returns how many bytes must be skipped from the start of b to
// reach an AlignUnit boundary.
func alignOffset(b []byte) int {
	mod := int(uintptr(unsafe.Pointer(unsafe.SliceData(b))) & (AlignUnit - 1))
	if mod == 0 {
		return 0
	}
	return AlignUnit - mod
}

// newAlignedBlock returns n zeroed bytes from the Go heap whose first byte is
// AlignUnit-aligned and whose capacity is exactly n.
func newAlignedBlock(n int) []byte {
	// Heap objects of 16 bytes or more come from size classes that already
	// satisfy AlignUnit, so the retry below is rare.
	b := make([]byte, n)
	if alignOffset(b) == 0 {
		return b
	}
	b = make([]byte, n+AlignUnit-1)
	off := alignOffset(b)
	return b[off : off+n : off+n]
}

// alignUp rounds n up to a multiple of unit, which must be a power of two.
func alignUp(n, unit int) int {
	return (n + unit - 1) &^ (unit - 1)
}

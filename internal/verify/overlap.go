// Package verify checks that memory handed out by an allocator never
// overlaps.
package verify

import (
	"fmt"
	"sort"
	"unsafe"
)

// Region is the half-open address range [Start, End).
type Region struct {
	Start uintptr
	End   uintptr
}

// RegionOf returns the address range covered by b. A nil or empty slice
// yields an empty region.
func RegionOf(b []byte) Region {
	if len(b) == 0 {
		return Region{}
	}
	start := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	return Region{Start: start, End: start + uintptr(len(b))}
}

// Within reports whether r lies entirely inside outer.
func (r Region) Within(outer Region) bool {
	return r.Start >= outer.Start && r.End <= outer.End
}

func (r Region) String() string {
	return fmt.Sprintf("[%#x, %#x)", r.Start, r.End)
}

// FindOverlap sorts regions by start address and returns the first pair that
// overlaps. Empty regions are ignored. The slice is reordered in place.
func FindOverlap(regions []Region) (a, b Region, found bool) {
	sort.Slice(regions, func(i, j int) bool {
		if regions[i].Start != regions[j].Start {
			return regions[i].Start < regions[j].Start
		}
		return regions[i].End < regions[j].End
	})

	var prev Region
	for _, r := range regions {
		if r.End <= r.Start {
			continue
		}
		if prev.End > r.Start {
			return prev, r, true
		}
		if r.End > prev.End {
			prev = r
		}
	}
	return Region{}, Region{}, false
}

package arena

import (
	"runtime"
	"testing"
)

// BenchmarkRealisticUsage tests scenarios where arena should excel
func BenchmarkRealisticUsage(b *testing.B) {

	// Test 1: Many small allocations, one arena per request
	b.Run("ManySmallAllocs/Arena", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			a := NewArena(64 * 1024)
			for j := 0; j < 100; j++ {
				a.Allocate(64)
			}
			a.Release()
		}
	})

	b.Run("ManySmallAllocs/Builtin", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			objects := make([][]byte, 100)
			for j := 0; j < 100; j++ {
				objects[j] = make([]byte, 64)
			}
			// Force GC to clean up (simulates request cleanup)
			if i%10 == 0 {
				runtime.GC()
			}
		}
	})

	// Test 2: Struct allocation patterns
	type TestStruct struct {
		ID   int64
		Data [56]byte // Total 64 bytes
	}

	b.Run("StructAllocs/Arena", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			a := NewArena(64 * 1024)
			for j := 0; j < 50; j++ {
				s := Alloc[TestStruct](a)
				s.ID = int64(j)
			}
			a.Release()
		}
	})

	b.Run("StructAllocs/Builtin", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			structs := make([]*TestStruct, 50)
			for j := 0; j < 50; j++ {
				structs[j] = &TestStruct{ID: int64(j)}
			}
			if i%10 == 0 {
				runtime.GC()
			}
		}
	})

	// Test 3: Mixed key/value buffers, as a write buffer would see them
	b.Run("MixedBuffers/Arena", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			a := NewArena(1024 * 1024)
			for j := 0; j < 10; j++ {
				key := a.Allocate(17 + j)
				hdr := a.AllocateAligned(24, 0, nil)
				val := a.Allocate(512)

				key[0] = byte(j)
				hdr[0] = byte(j)
				val[0] = byte(j)
			}
			a.Release()
		}
	})

	b.Run("MixedBuffers/Builtin", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			buffers := make([][]byte, 30)
			for j := 0; j < 10; j++ {
				buffers[j*3] = make([]byte, 17+j)
				buffers[j*3+1] = make([]byte, 24)
				buffers[j*3+2] = make([]byte, 512)

				buffers[j*3][0] = byte(j)
				buffers[j*3+1][0] = byte(j)
				buffers[j*3+2][0] = byte(j)
			}
			if i%5 == 0 {
				runtime.GC()
			}
		}
	})

	// Test 4: No GC pressure test
	b.Run("NoGCPressure/Arena", func(b *testing.B) {
		a := NewArena(1024 * 1024)
		runtime.GC()

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			a.Allocate(128)
			if i%100000 == 99999 {
				a.Release()
				a = NewArena(1024 * 1024)
			}
		}
		a.Release()
	})

	b.Run("NoGCPressure/ConcurrentArena", func(b *testing.B) {
		c := NewConcurrentArena(1024 * 1024)
		defer c.Release()
		runtime.GC()

		b.ResetTimer()
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				c.Allocate(128)
			}
		})
	})

	b.Run("NoGCPressure/Builtin", func(b *testing.B) {
		runtime.GC()

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = make([]byte, 128)
		}
	})
}

package arena_test

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/pavanmanishd/arena/v2"
	"github.com/pavanmanishd/arena/v2/memtrack"
)

// Example demonstrates basic arena usage
func Example() {
	a := arena.NewArena(4096)
	defer a.Release() // Always clean up

	key := a.Allocate(100)
	hdr := a.AllocateAligned(100, 0, nil)
	fmt.Printf("Allocated %d unaligned and %d aligned bytes\n", len(key), len(hdr))
	fmt.Printf("Unused: %d bytes, still inline: %v\n", a.AllocatedAndUnused(), a.IsInInlineBlock())

	// More than a quarter of a block gets a block of its own.
	a.Allocate(3000)
	fmt.Printf("Irregular blocks: %d\n", a.IrregularBlockNum())
	fmt.Printf("Memory allocated: %d bytes\n", a.MemoryAllocatedBytes())

	// Output:
	// Allocated 100 unaligned and 100 aligned bytes
	// Unused: 1848 bytes, still inline: true
	// Irregular blocks: 1
	// Memory allocated: 5048 bytes
}

// ExampleAllocSlice demonstrates typed allocation
func ExampleAllocSlice() {
	a := arena.NewArena(4096)
	defer a.Release()

	ptr := arena.Alloc[int](a)
	*ptr = 42
	fmt.Printf("Allocated int with value: %d\n", *ptr)

	slice := arena.AllocSlice[int](a, 5)
	for i := range slice {
		slice[i] = i * 2
	}
	fmt.Printf("Allocated slice: %v\n", slice)

	// Output:
	// Allocated int with value: 42
	// Allocated slice: [0 2 4 6 8]
}

// ExampleConcurrentArena demonstrates concurrent arena usage
func ExampleConcurrentArena() {
	c := arena.NewConcurrentArena(1 << 20)
	defer c.Release()

	const numWorkers = 4
	results := make([][]uint64, numWorkers)

	var eg errgroup.Group
	for i := 0; i < numWorkers; i++ {
		eg.Go(func() error {
			vals := arena.AllocSlice[uint64](c, 10)
			for j := range vals {
				vals[j] = uint64(i*10 + j)
			}
			results[i] = vals
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		panic(err)
	}

	var sum uint64
	for _, vals := range results {
		for _, v := range vals {
			sum += v
		}
	}
	fmt.Printf("Sum of values from %d workers: %d\n", numWorkers, sum)
	fmt.Printf("Shard refill size: %d bytes\n", c.ShardBlockSize())

	// Output:
	// Sum of values from 4 workers: 780
	// Shard refill size: 131072 bytes
}

// ExampleWithTracker demonstrates charging arena memory to a shared budget
func ExampleWithTracker() {
	budget := memtrack.NewBudget(1<<20, nil)
	a := arena.NewArena(4096, arena.WithTracker(memtrack.NewAllocTracker(budget)))

	a.Allocate(3000)
	fmt.Printf("Budget in use: %d bytes\n", budget.MemoryUsage())

	a.Release()
	fmt.Printf("Budget in use after release: %d bytes\n", budget.MemoryUsage())

	// Output:
	// Budget in use: 5048 bytes
	// Budget in use after release: 0 bytes
}

// ExampleConfig demonstrates building an arena from configuration
func ExampleConfig() {
	cfg := arena.DefaultConfig()
	cfg.BlockSize = 10000
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	a := arena.NewArena(cfg.BlockSize, cfg.Options()...)
	defer a.Release()
	fmt.Printf("Block size: %d\n", a.BlockSize())

	cfg.HugePageSize = 3000
	fmt.Println(cfg.Validate())

	// Output:
	// Block size: 10000
	// invalid huge page size 3000: must be a power of two
}

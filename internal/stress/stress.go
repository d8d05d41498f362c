// Package stress drives a ConcurrentArena from many goroutines and checks
// that no two allocations share memory.
package stress

import (
	"context"
	"math/rand/v2"
	"time"
	"unsafe"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pavanmanishd/arena/v2"
	"github.com/pavanmanishd/arena/v2/internal/verify"
)

// Workload describes one stress run.
type Workload struct {
	Workers      int
	Allocations  int
	MaxSize      int
	AlignedRatio float64
	Seed         uint64
}

// Validate rejects workloads that cannot run.
func (w Workload) Validate() error {
	switch {
	case w.Workers <= 0:
		return errors.Errorf("invalid worker count %d: must be positive", w.Workers)
	case w.Allocations <= 0:
		return errors.Errorf("invalid allocation count %d: must be positive", w.Allocations)
	case w.MaxSize <= 0:
		return errors.Errorf("invalid max size %d: must be positive", w.MaxSize)
	case w.AlignedRatio < 0 || w.AlignedRatio > 1:
		return errors.Errorf("invalid aligned ratio %v: must be within [0, 1]", w.AlignedRatio)
	}
	return nil
}

// Result summarizes a run.
type Result struct {
	Allocations int
	HandedOut   int
	Elapsed     time.Duration
	Stats       arena.Stats
}

// ErrOverlap is returned when two allocations share memory.
var ErrOverlap = errors.New("allocations overlap")

// Run executes w against c. It stops early if ctx is cancelled.
func Run(ctx context.Context, c *arena.ConcurrentArena, w Workload, logger logrus.FieldLogger) (Result, error) {
	if err := w.Validate(); err != nil {
		return Result{}, err
	}

	start := time.Now()
	regions := make([][]verify.Region, w.Workers)
	handedOut := make([]int, w.Workers)

	eg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.Workers; i++ {
		eg.Go(func() error {
			rng := rand.New(rand.NewPCG(w.Seed, uint64(i)))
			local := make([]verify.Region, 0, w.Allocations)
			for j := 0; j < w.Allocations; j++ {
				if j%1024 == 0 && ctx.Err() != nil {
					return ctx.Err()
				}
				n := 1 + rng.IntN(w.MaxSize)
				var b []byte
				if rng.Float64() < w.AlignedRatio {
					b = c.AllocateAligned(n, 0, logger)
					if uintptr(unsafe.Pointer(unsafe.SliceData(b)))%arena.AlignUnit != 0 {
						return errors.Errorf("worker %d: aligned allocation of %d bytes is misaligned", i, n)
					}
				} else {
					b = c.Allocate(n)
				}
				b[0], b[n-1] = byte(i), byte(j)
				local = append(local, verify.RegionOf(b))
				handedOut[i] += n
			}
			regions[i] = local
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Result{}, errors.Wrap(err, "run workload")
	}

	res := Result{Elapsed: time.Since(start), Stats: c.Stats()}
	var all []verify.Region
	for i := range regions {
		all = append(all, regions[i]...)
		res.HandedOut += handedOut[i]
	}
	res.Allocations = len(all)

	if a, b, found := verify.FindOverlap(all); found {
		return res, errors.Wrapf(ErrOverlap, "%s and %s", a, b)
	}

	logger.WithFields(logrus.Fields{
		"action":      "stress_run",
		"allocations": res.Allocations,
		"handed_out":  humanize.IBytes(uint64(res.HandedOut)),
		"allocated":   humanize.IBytes(uint64(res.Stats.MemoryAllocatedBytes)),
		"utilization": res.Stats.Utilization(),
		"elapsed":     res.Elapsed,
	}).Info("stress run finished without overlaps")
	return res, nil
}

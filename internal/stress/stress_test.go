package stress

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavanmanishd/arena/v2"
)

func TestRun(t *testing.T) {
	logger, hook := logrustest.NewNullLogger()
	c := arena.NewConcurrentArena(64 << 10)
	defer c.Release()

	w := Workload{Workers: 4, Allocations: 1000, MaxSize: 256, AlignedRatio: 0.5, Seed: 7}
	res, err := Run(context.Background(), c, w, logger)
	require.NoError(t, err)

	assert.Equal(t, 4000, res.Allocations)
	assert.GreaterOrEqual(t, res.HandedOut, 4000)
	assert.LessOrEqual(t, res.HandedOut+res.Stats.AllocatedAndUnused, res.Stats.MemoryAllocatedBytes)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "stress_run", hook.LastEntry().Data["action"])
}

func TestRunCancelled(t *testing.T) {
	logger, _ := logrustest.NewNullLogger()
	c := arena.NewConcurrentArena(64 << 10)
	defer c.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, c, Workload{Workers: 2, Allocations: 10, MaxSize: 8}, logger)
	assert.Equal(t, context.Canceled, errors.Cause(err))
}

func TestWorkloadValidate(t *testing.T) {
	valid := Workload{Workers: 1, Allocations: 1, MaxSize: 1}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Workload)
	}{
		{"no workers", func(w *Workload) { w.Workers = 0 }},
		{"no allocations", func(w *Workload) { w.Allocations = -1 }},
		{"no size", func(w *Workload) { w.MaxSize = 0 }},
		{"ratio above one", func(w *Workload) { w.AlignedRatio = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := valid
			tt.mutate(&w)
			assert.Error(t, w.Validate())
		})
	}
}

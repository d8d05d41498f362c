package arena

import "github.com/prometheus/client_golang/prometheus"

// ApproximateMemoryUsage returns the bytes held by the arena minus the unused
// part of the active region.
func (a *Arena) ApproximateMemoryUsage() int {
	return a.blocksMemory + len(a.blocks)*sliceHeaderSize - a.AllocatedAndUnused()
}

// MemoryAllocatedBytes returns the total size of the inline buffer and all
// blocks, used or not.
func (a *Arena) MemoryAllocatedBytes() int {
	return a.blocksMemory
}

// AllocatedAndUnused returns the bytes still free in the active region.
func (a *Arena) AllocatedAndUnused() int {
	return a.unalignedOff - a.alignedOff
}

// IrregularBlockNum returns how many blocks were sized to a single oversized
// request.
func (a *Arena) IrregularBlockNum() int {
	return a.irregularBlockNum
}

// BlockSize returns the size of regular blocks.
func (a *Arena) BlockSize() int {
	return a.blockSize
}

// IsInInlineBlock reports whether the arena is still serving from its
// inline buffer, i.e. no block of any kind has been acquired yet.
func (a *Arena) IsInInlineBlock() bool {
	return len(a.blocks) == 0 && len(a.hugeBlocks) == 0
}

// NumBlocks returns the number of regular and irregular blocks.
func (a *Arena) NumBlocks() int {
	return len(a.blocks)
}

// NumHugeBlocks returns the number of huge-page mappings.
func (a *Arena) NumHugeBlocks() int {
	return len(a.hugeBlocks)
}

// Stats returns a snapshot of arena statistics.
func (a *Arena) Stats() Stats {
	return Stats{
		MemoryAllocatedBytes:   a.MemoryAllocatedBytes(),
		AllocatedAndUnused:     a.AllocatedAndUnused(),
		ApproximateMemoryUsage: a.ApproximateMemoryUsage(),
		IrregularBlockNum:      a.IrregularBlockNum(),
		BlockSize:              a.BlockSize(),
		NumBlocks:              a.NumBlocks(),
		NumHugeBlocks:          a.NumHugeBlocks(),
	}
}

// Stats contains statistical information about an arena.
type Stats struct {
	MemoryAllocatedBytes   int // Inline buffer plus every block, used or not
	AllocatedAndUnused     int // Free bytes in the active region (and shards)
	ApproximateMemoryUsage int // Bytes actually handed out, roughly
	IrregularBlockNum      int // Blocks sized to one oversized request
	BlockSize              int // Size of regular blocks
	NumBlocks              int // Regular and irregular blocks
	NumHugeBlocks          int // Huge-page mappings
}

// Utilization returns the ratio of approximately used memory to allocated
// memory (0.0 to 1.0). Returns 0.0 if nothing is allocated.
func (s Stats) Utilization() float64 {
	if s.MemoryAllocatedBytes == 0 {
		return 0
	}
	return float64(s.ApproximateMemoryUsage) / float64(s.MemoryAllocatedBytes)
}

// StatsSource is anything that can report arena statistics.
type StatsSource interface {
	Stats() Stats
}

var (
	_ StatsSource = (*Arena)(nil)
	_ StatsSource = (*ConcurrentArena)(nil)
)

// Collector exports the statistics of one arena as Prometheus gauges.
type Collector struct {
	src StatsSource

	allocated   *prometheus.Desc
	unused      *prometheus.Desc
	usage       *prometheus.Desc
	irregular   *prometheus.Desc
	blocks      *prometheus.Desc
	hugeBlocks  *prometheus.Desc
	utilization *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a collector for src. constLabels distinguish several
// arenas registered with the same registry.
func NewCollector(src StatsSource, constLabels prometheus.Labels) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("arena", "", name), help, nil, constLabels)
	}
	return &Collector{
		src:         src,
		allocated:   desc("memory_allocated_bytes", "Bytes in the inline buffer and all blocks, used or not."),
		unused:      desc("allocated_and_unused_bytes", "Bytes allocated from the system but not yet handed out."),
		usage:       desc("approximate_memory_usage_bytes", "Approximate bytes handed out to callers."),
		irregular:   desc("irregular_blocks", "Blocks sized to a single oversized request."),
		blocks:      desc("blocks", "Regular and irregular blocks."),
		hugeBlocks:  desc("huge_blocks", "Huge-page backed mappings."),
		utilization: desc("utilization_ratio", "Approximate usage divided by allocated bytes."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.allocated
	ch <- c.unused
	ch <- c.usage
	ch <- c.irregular
	ch <- c.blocks
	ch <- c.hugeBlocks
	ch <- c.utilization
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}
	gauge(c.allocated, float64(s.MemoryAllocatedBytes))
	gauge(c.unused, float64(s.AllocatedAndUnused))
	gauge(c.usage, float64(s.ApproximateMemoryUsage))
	gauge(c.irregular, float64(s.IrregularBlockNum))
	gauge(c.blocks, float64(s.NumBlocks))
	gauge(c.hugeBlocks, float64(s.NumHugeBlocks))
	gauge(c.utilization, s.Utilization())
}

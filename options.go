package arena

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type options struct {
	tracker      Tracker
	hugePageSize int
	logger       logrus.FieldLogger
	provider     CoreIndexProvider
	mappedBlocks bool
}

// Option configures an Arena or a ConcurrentArena.
type Option func(*options)

// WithTracker charges every block the arena acquires to t, and frees it on
// Release.
func WithTracker(t Tracker) Option {
	return func(o *options) {
		o.tracker = t
	}
}

// WithHugePageSize makes block allocation try huge-page mappings of the given
// page size first. 0 disables huge pages. The size should be one the system
// supports, such as 2 MiB, and pages must be reserved up front.
func WithHugePageSize(size int) Option {
	return func(o *options) {
		o.hugePageSize = size
	}
}

// WithLogger sets where huge-page fallbacks and release failures are
// reported. Defaults to logrus.StandardLogger().
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithCoreIndexProvider sets how ConcurrentArena maps a goroutine to a shard
// after contention. Defaults to the id of the scheduler P. Arena ignores it.
func WithCoreIndexProvider(p CoreIndexProvider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithMappedBlocks backs regular and irregular blocks with anonymous memory
// mappings instead of the Go heap. Such blocks are lazily zeroed by the OS,
// never scanned by the garbage collector and unmapped on Release.
func WithMappedBlocks(enabled bool) Option {
	return func(o *options) {
		o.mappedBlocks = enabled
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logrus.StandardLogger()
	}
	return o
}

// Config is the declarative form of the arena parameters, for embedding in
// an application's configuration file.
type Config struct {
	BlockSize    int  `json:"blockSize" yaml:"blockSize"`
	HugePageSize int  `json:"hugePageSize" yaml:"hugePageSize"`
	MappedBlocks bool `json:"mappedBlocks" yaml:"mappedBlocks"`
}

// DefaultConfig returns a Config with the smallest block size and no huge
// pages.
func DefaultConfig() Config {
	return Config{BlockSize: MinBlockSize}
}

// Validate rejects values that no arena could honour.
func (c Config) Validate() error {
	if c.BlockSize < 0 {
		return errors.Errorf("invalid block size %d: must not be negative", c.BlockSize)
	}
	if c.HugePageSize < 0 {
		return errors.Errorf("invalid huge page size %d: must not be negative", c.HugePageSize)
	}
	if c.HugePageSize > 0 && c.HugePageSize&(c.HugePageSize-1) != 0 {
		return errors.Errorf("invalid huge page size %d: must be a power of two", c.HugePageSize)
	}
	return nil
}

// ParseConfig decodes a YAML (or JSON) document into a Config. Fields that
// are absent keep their DefaultConfig values.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse arena config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Options converts the Config into constructor options.
func (c Config) Options() []Option {
	return []Option{
		WithHugePageSize(c.HugePageSize),
		WithMappedBlocks(c.MappedBlocks),
	}
}

package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"default", DefaultConfig(), ""},
		{"zero block size", Config{}, ""},
		{"huge pages", Config{BlockSize: 1 << 20, HugePageSize: 2 << 20}, ""},
		{"negative block size", Config{BlockSize: -1}, "invalid block size -1"},
		{"negative huge page size", Config{HugePageSize: -1}, "invalid huge page size -1"},
		{"odd huge page size", Config{HugePageSize: 3 << 20}, "must be a power of two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte("blockSize: 65536\nmappedBlocks: true\n"))
	require.NoError(t, err)
	assert.Equal(t, Config{BlockSize: 65536, MappedBlocks: true}, cfg)

	o := buildOptions(cfg.Options())
	assert.True(t, o.mappedBlocks)
	assert.Zero(t, o.hugePageSize)
	assert.NotNil(t, o.logger)

	a := NewArena(cfg.BlockSize, cfg.Options()...)
	defer a.Release()
	assert.Equal(t, 65536, a.BlockSize())
	assert.True(t, a.useMapped)
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"hugePageSize": 2097152}`))
	require.NoError(t, err)
	assert.Equal(t, MinBlockSize, cfg.BlockSize)
	assert.Equal(t, 2<<20, cfg.HugePageSize)
}

func TestParseConfigErrors(t *testing.T) {
	_, err := ParseConfig([]byte("blockSize: [1, 2]"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse arena config")

	_, err = ParseConfig([]byte("hugePageSize: 3000"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a power of two")
}

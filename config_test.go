package gsqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestFromMapRejectsUnknownKey(t *testing.T) {
	_, err := FromMap(map[string]any{"not_a_real_key": 1})
	require.Error(t, err)
	var gerr *GError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, ConfigError, gerr.Kind)
}

func TestFromMapRejectsBadPageSize(t *testing.T) {
	_, err := FromMap(map[string]any{"inner_page_KiB": 7})
	require.Error(t, err)
}

func TestFromMapAppliesOverrides(t *testing.T) {
	cfg, err := FromMap(map[string]any{
		"unsafe_load":    true,
		"page_cache_MiB": 512,
		"threads":        4,
		"zstd_level":     19,
		"inner_page_KiB": 8,
		"outer_page_KiB": 64,
	})
	require.NoError(t, err)
	assert.True(t, cfg.UnsafeLoad)
	assert.Equal(t, 512, cfg.PageCacheMiB)
	assert.Equal(t, 4, cfg.Threads)
	assert.Equal(t, 19, cfg.ZstdLevel)
	assert.Equal(t, 8, cfg.InnerPageKiB)
	assert.Equal(t, 64, cfg.OuterPageKiB)
}

func TestResolvedThreadsDefaultSentinel(t *testing.T) {
	cfg := DefaultConfig()
	got := cfg.resolvedThreads()
	assert.GreaterOrEqual(t, got, 1)
	assert.LessOrEqual(t, got, 8)
}

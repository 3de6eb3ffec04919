package loxone

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "loxone_504F94A00000_ip", CacheKey("504F94A00000"))
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()

	_, ok := c.Get("missing")
	assert.False(t, ok)

	require.NoError(t, c.Set("k", "10.0.0.5"))
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.5", v)

	require.NoError(t, c.Set("k", "10.0.0.6"))
	v, _ = c.Get("k")
	assert.Equal(t, "10.0.0.6", v)
}

func TestFileCache_RoundTripAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "cache.json")

	first := NewFileCache(path)
	_, ok := first.Get("k")
	assert.False(t, ok)

	require.NoError(t, first.Set("k", "10.0.0.5"))
	require.NoError(t, first.Set("other", "10.0.0.9"))

	second := NewFileCache(path)
	v, ok := second.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.5", v)

	v, ok = second.Get("other")
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.9", v)
}

func TestFileCache_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	c := NewFileCache(path)
	_, ok := c.Get("k")
	assert.False(t, ok)

	err := c.Set("k", "10.0.0.5")
	assert.Error(t, err)
}

func TestFileCache_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	c := NewFileCache(path)
	require.NoError(t, c.Set("k", "10.0.0.5"))

	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.5", v)
}

package cluster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/canvass/internal/model"
)

func samplePass() []Cluster {
	return Build([]model.Business{biz("a", 37.78, -122.43, model.StatusOpen)}, 12)
}

func TestCache_GetPut(t *testing.T) {
	c := NewCache(10, time.Hour)

	_, ok := c.Get("1", 12, 1)
	assert.False(t, ok)

	c.Put("1", 12, 1, samplePass())
	got, ok := c.Get("1", 12, 1)
	require.True(t, ok)
	assert.Len(t, got, 1)

	_, ok = c.Get("1", 12, 2)
	assert.False(t, ok, "a new revision must miss")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.InDelta(t, 1.0/3.0, stats.HitRate, 1e-9)
}

func TestCache_LRUEviction(t *testing.T) {
	c := NewCache(2, time.Hour)
	c.Put("1", 10, 1, samplePass())
	c.Put("1", 11, 1, samplePass())

	_, ok := c.Get("1", 10, 1) // touch zoom 10 so zoom 11 is oldest
	require.True(t, ok)

	c.Put("1", 12, 1, samplePass())

	_, ok = c.Get("1", 11, 1)
	assert.False(t, ok)
	_, ok = c.Get("1", 10, 1)
	assert.True(t, ok)
	assert.Equal(t, 2, c.Stats().Entries)
}

func TestCache_TTLExpiry(t *testing.T) {
	c := NewCache(10, time.Millisecond)
	c.Put("1", 12, 1, samplePass())
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("1", 12, 1)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestCache_Invalidate(t *testing.T) {
	c := NewCache(10, time.Hour)
	c.Put("1", 12, 1, samplePass())
	c.Put("2", 12, 1, samplePass())

	c.Invalidate("1")

	_, ok := c.Get("1", 12, 1)
	assert.False(t, ok)
	_, ok = c.Get("2", 12, 1)
	assert.True(t, ok)
}

func TestCache_OverwriteKeepsSingleEntry(t *testing.T) {
	c := NewCache(10, time.Hour)
	c.Put("1", 12, 1, samplePass())
	c.Put("1", 12, 1, nil)
	got, ok := c.Get("1", 12, 1)
	require.True(t, ok)
	assert.Nil(t, got)
	assert.Equal(t, 1, c.Stats().Entries)
}

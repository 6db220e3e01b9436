package cache_test

import (
	"testing"

	"github.com/hscells/taxifare/cache"
	"github.com/hscells/taxifare/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func block() *frame.Frame {
	return frame.Must(
		frame.FloatColumn("distance", []float64{1.5, 2.5}),
		frame.StringColumn("geohash_pickup", []string{"dr5ru7", "dr5reg"}),
	)
}

func exercise(t *testing.T, c cache.FeatureCache) {
	key := cache.Key("distance", "haversine", block().Hash())
	_, err := c.Get(key)
	assert.Equal(t, cache.ErrMiss, err)

	require.NoError(t, c.Set(key, block()))
	f, err := c.Get(key)
	require.NoError(t, err)
	assert.Equal(t, block().Hash(), f.Hash())
}

func TestMapFeatureCache(t *testing.T) {
	exercise(t, cache.NewMapFeatureCache())
}

func TestLRUFeatureCache(t *testing.T) {
	c, err := cache.NewLRUFeatureCache(1)
	require.NoError(t, err)
	exercise(t, c)

	require.NoError(t, c.Set("other", block()))
	_, err = c.Get(cache.Key("distance", "haversine", block().Hash()))
	assert.Equal(t, cache.ErrMiss, err)
}

func TestDiskvFeatureCache(t *testing.T) {
	c, ok, err := cache.Open(t.TempDir())
	require.NoError(t, err)
	require.True(t, ok)
	exercise(t, c)
}

func TestOpen(t *testing.T) {
	_, ok, err := cache.Open("")
	require.NoError(t, err)
	assert.False(t, ok)

	for _, setting := range []string{"memory", "lru"} {
		c, ok, err := cache.Open(setting)
		require.NoError(t, err)
		assert.True(t, ok)
		exercise(t, c)
	}
}

func TestKeyDependsOnEveryPart(t *testing.T) {
	assert.Equal(t, cache.Key("a", 1), cache.Key("a", 1))
	assert.NotEqual(t, cache.Key("a", 1), cache.Key("a", 2))
	assert.NotEqual(t, cache.Key("ab"), cache.Key("a", "b"))
}

func TestBlockTransform(t *testing.T) {
	assert.Equal(t, []string{"12", "34"}, cache.BlockTransform(2)("12345"))
}

package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCache(rdb, time.Minute), mr
}

func TestCache_SetGetDelete(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	type page struct {
		Total int64    `json:"total"`
		IDs   []string `json:"ids"`
	}

	var got page
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "k", page{Total: 2, IDs: []string{"a", "b"}}))
	assert.Equal(t, time.Minute, mr.TTL("k"))

	found, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, page{Total: 2, IDs: []string{"a", "b"}}, got)

	require.NoError(t, c.Delete(ctx, "k"))
	found, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_Generation(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	gen, err := c.Generation(ctx, "requests")
	require.NoError(t, err)
	assert.Zero(t, gen)

	require.NoError(t, c.Bump(ctx, "requests"))
	require.NoError(t, c.Bump(ctx, "requests"))
	gen, err = c.Generation(ctx, "requests")
	require.NoError(t, err)
	assert.EqualValues(t, 2, gen)
}

func TestCache_ExpiredEntry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", 1))
	mr.FastForward(2 * time.Minute)

	var v int
	found, err := c.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

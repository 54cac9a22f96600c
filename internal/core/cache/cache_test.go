package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newCache(t *testing.T, localSize int) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := NewRedis(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, Options{Prefix: "t:", LocalSize: localSize, LocalTTL: time.Minute}), mr
}

func TestGetOrLoadJSONCachesInRedis(t *testing.T) {
	c, mr := newCache(t, 0)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (*item, error) {
		calls++
		return &item{ID: "p1", Name: "Nendoroid"}, nil
	}

	got, err := GetOrLoadJSON(c, ctx, "product:p1", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "Nendoroid", got.Name)
	assert.True(t, mr.Exists("t:product:p1"))

	got, err = GetOrLoadJSON(c, ctx, "product:p1", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, 1, calls)
}

func TestLocalTierServesWithoutRedis(t *testing.T) {
	c, mr := newCache(t, 16)
	ctx := context.Background()
	_, err := GetOrLoadJSON(c, ctx, "k", time.Minute, func(context.Context) (*item, error) {
		return &item{ID: "x"}, nil
	})
	require.NoError(t, err)

	mr.FlushAll()
	got, err := GetOrLoadJSON(c, ctx, "k", time.Minute, func(context.Context) (*item, error) {
		return nil, errors.New("should not load")
	})
	require.NoError(t, err)
	assert.Equal(t, "x", got.ID)
}

func TestNilValueIsNotCached(t *testing.T) {
	c, mr := newCache(t, 16)
	got, err := GetOrLoadJSON(c, context.Background(), "missing", time.Minute, func(context.Context) (*item, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists("t:missing"))
}

func TestDeleteInvalidatesBothTiers(t *testing.T) {
	c, mr := newCache(t, 16)
	ctx := context.Background()
	n := 0
	load := func(context.Context) (*item, error) {
		n++
		return &item{ID: "v"}, nil
	}
	_, err := GetOrLoadJSON(c, ctx, "k", time.Minute, load)
	require.NoError(t, err)
	require.NoError(t, c.Delete(ctx, "k"))
	assert.False(t, mr.Exists("t:k"))

	_, err = GetOrLoadJSON(c, ctx, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLoaderErrorPropagates(t *testing.T) {
	c, _ := newCache(t, 0)
	boom := errors.New("db down")
	_, err := GetOrLoadJSON(c, context.Background(), "e", time.Minute, func(context.Context) (*item, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestDeleteInvalidatesLocalTierOfOtherProcesses(t *testing.T) {
	api, mr := newCache(t, 16)
	rdb := NewRedis(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = rdb.Close() })
	admin := New(rdb, Options{Prefix: "t:", LocalSize: 16, LocalTTL: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- api.Listen(ctx) }()

	load := func(context.Context) (*item, error) { return &item{ID: "p1", Name: "v1"}, nil }
	_, err := GetOrLoadJSON(api, ctx, "product:p1", time.Minute, load)
	require.NoError(t, err)
	_, cached := api.local.Get("t:product:p1")
	require.True(t, cached)

	// 订阅建立之前的通知会丢，重复删直到对端收到
	assert.Eventually(t, func() bool {
		_ = admin.Delete(context.Background(), "product:p1")
		_, ok := api.local.Get("t:product:p1")
		return !ok
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

package cache

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/contractdesk/contractdesk/backend/go-services/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestRedisCacheSetGetInvalidate(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	c := NewRedisCache(client, "test:", time.Minute)
	ctx := context.Background()

	missesBefore := testutil.ToFloat64(metrics.CacheLookups.WithLabelValues(KeyCategories, "miss"))

	var got []item
	ok, err := c.Get(ctx, KeyCategories, &got)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, missesBefore+1, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues(KeyCategories, "miss")))

	require.NoError(t, c.Set(ctx, KeyCategories, []item{{ID: "1", Name: "Services"}}))
	require.True(t, m.Exists("test:categories"))

	ok, err = c.Get(ctx, KeyCategories, &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Services", got[0].Name)

	require.NoError(t, c.Invalidate(ctx, KeyCategories, KeyContracts))
	ok, err = c.Get(ctx, KeyCategories, &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCacheTTL(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	c := NewRedisCache(client, "", 2*time.Second)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, KeyContracts, []item{{ID: "a"}}))
	m.FastForward(3 * time.Second)

	var got []item
	ok, err := c.Get(ctx, KeyContracts, &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCacheCorruptValueIsMiss(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	c := NewRedisCache(client, "x:", time.Minute)
	require.NoError(t, m.Set("x:obligations", "{not json"))

	var got []item
	ok, err := c.Get(context.Background(), KeyObligations, &got)
	require.NoError(t, err)
	require.False(t, ok)
	require.False(t, m.Exists("x:obligations"))
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	require.NoError(t, c.Set(context.Background(), "k", 1))
	var v int
	ok, err := c.Get(context.Background(), "k", &v)
	require.NoError(t, err)
	require.False(t, ok)
}

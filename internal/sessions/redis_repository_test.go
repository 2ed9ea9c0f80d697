package sessions

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisRepo(t *testing.T, prefix string) (*RedisRepository, *mr.Miniredis) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return NewRedisRepository(redis.NewClient(&redis.Options{Addr: m.Addr()}), prefix), m
}

func TestRedisRepositoryDefaultPrefixAndTTL(t *testing.T) {
	repo, m := newRedisRepo(t, "")
	ctx := context.Background()

	s := &Session{RefreshToken: "r1", Sub: "reviewer-1", ExpiresAt: time.Now().UTC().Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, s))

	require.True(t, m.Exists(DefaultSessionPrefix+"r1"))
	ttl := m.TTL(DefaultSessionPrefix + "r1")
	require.True(t, ttl > 59*time.Minute && ttl <= time.Hour, ttl)

	got, err := repo.GetByRefresh(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "reviewer-1", got.Sub)

	require.NoError(t, repo.DeleteByRefresh(ctx, "r1"))
	got, err = repo.GetByRefresh(ctx, "r1")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRedisRepositoryExpiry(t *testing.T) {
	repo, m := newRedisRepo(t, "test:session:")
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &Session{RefreshToken: "r2", Sub: "s", ExpiresAt: time.Now().UTC().Add(time.Second)}))
	got, err := repo.GetByRefresh(ctx, "r2")
	require.NoError(t, err)
	require.NotNil(t, got)

	m.FastForward(2 * time.Second)
	got, err = repo.GetByRefresh(ctx, "r2")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRedisRepositoryCorruptValue(t *testing.T) {
	repo, m := newRedisRepo(t, "test:session:")
	require.NoError(t, m.Set("test:session:bad", "{not json"))

	_, err := repo.GetByRefresh(context.Background(), "bad")
	require.Error(t, err)
}

func TestRotateOverRedis(t *testing.T) {
	repo, m := newRedisRepo(t, "")
	svc := NewService(repo)
	ctx := context.Background()

	first, err := svc.CreateSession(ctx, "admin-sub", time.Hour)
	require.NoError(t, err)

	next, sess, err := svc.Rotate(ctx, first, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Equal(t, "admin-sub", sess.Sub)
	require.NotEqual(t, first, next)

	require.False(t, m.Exists(DefaultSessionPrefix+first))
	require.True(t, m.Exists(DefaultSessionPrefix+next))
}

func TestRedisRepositoryStampsMissingExpiry(t *testing.T) {
	repo, m := newRedisRepo(t, "")
	ctx := context.Background()

	s := &Session{RefreshToken: "r3", Sub: "s"}
	require.NoError(t, repo.Create(ctx, s))
	require.False(t, s.CreatedAt.IsZero())
	require.WithinDuration(t, s.CreatedAt.Add(defaultSessionTTL), s.ExpiresAt, time.Second)

	ttl := m.TTL(DefaultSessionPrefix + "r3")
	require.True(t, ttl > defaultSessionTTL-time.Minute && ttl <= defaultSessionTTL, ttl)
}

func TestSessionRemainingAndExpired(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	s := &Session{ExpiresAt: now.Add(time.Hour)}
	require.False(t, s.Expired(now))
	require.Equal(t, time.Hour, s.remaining(now))

	past := now.Add(2 * time.Hour)
	require.True(t, s.Expired(past))
	require.Equal(t, time.Second, s.remaining(past))
}

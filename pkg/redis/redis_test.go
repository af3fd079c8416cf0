package redis_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/redis"
)

// pagedKeys serves keys in fixed pages and records deletions.
type pagedKeys struct {
	keys    []string
	page    int
	deleted []string
	scanErr error
	matches []string
}

func (p *pagedKeys) Scan(ctx context.Context, cursor uint64, match string, count int64) *goredis.ScanCmd {
	p.matches = append(p.matches, match)
	if p.scanErr != nil {
		return goredis.NewScanCmdResult(nil, 0, p.scanErr)
	}
	prefix := strings.TrimSuffix(match, "*")
	start := int(cursor) * p.page
	end := min(start+p.page, len(p.keys))
	var out []string
	for _, k := range p.keys[start:end] {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	next := uint64(0)
	if end < len(p.keys) {
		next = cursor + 1
	}
	return goredis.NewScanCmdResult(out, next, nil)
}

func (p *pagedKeys) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	p.deleted = append(p.deleted, keys...)
	return goredis.NewIntResult(int64(len(keys)), nil)
}

func TestDeleteByPrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("walks every page", func(t *testing.T) {
		t.Parallel()

		client := &pagedKeys{
			page: 2,
			keys: []string{"tenant:a", "other:x", "tenant:b", "tenant:c", "other:y"},
		}
		n, err := redis.DeleteByPrefix(ctx, client, "tenant:", 10)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
		assert.Equal(t, []string{"tenant:a", "tenant:b", "tenant:c"}, client.deleted)
		assert.Len(t, client.matches, 3)
		assert.Equal(t, "tenant:*", client.matches[0])
	})

	t.Run("empty prefix is rejected", func(t *testing.T) {
		t.Parallel()

		client := &pagedKeys{page: 1, keys: []string{"a"}}
		_, err := redis.DeleteByPrefix(ctx, client, "", 10)
		assert.ErrorIs(t, err, redis.ErrEmptyKeyPrefix)
		assert.Empty(t, client.matches)
	})

	t.Run("scan error", func(t *testing.T) {
		t.Parallel()

		client := &pagedKeys{page: 1, scanErr: errors.New("connection reset")}
		_, err := redis.DeleteByPrefix(ctx, client, "tenant:", 0)
		assert.ErrorIs(t, err, redis.ErrScanFailed)
	})
}

func TestConnect(t *testing.T) {
	t.Parallel()

	t.Run("empty url", func(t *testing.T) {
		t.Parallel()
		_, err := redis.Connect(context.Background(), redis.Config{})
		assert.ErrorIs(t, err, redis.ErrEmptyConnectionURL)
	})

	t.Run("invalid url", func(t *testing.T) {
		t.Parallel()
		_, err := redis.Connect(context.Background(), redis.Config{ConnectionURL: "http://localhost"})
		assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := redis.Connect(ctx, redis.Config{
			ConnectionURL: "redis://127.0.0.1:1/0",
			RetryAttempts: 3,
			RetryInterval: time.Minute,
		})
		assert.ErrorIs(t, err, redis.ErrRedisNotReady)
	})
}

type pinger struct{ err error }

func (p pinger) Ping(ctx context.Context) *goredis.StatusCmd {
	return goredis.NewStatusResult("PONG", p.err)
}

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	assert.NoError(t, redis.Healthcheck(pinger{})(context.Background()))

	err := redis.Healthcheck(pinger{err: errors.New("i/o timeout")})(context.Background())
	assert.ErrorIs(t, err, redis.ErrHealthcheckFailed)
}

package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// KeyScanner is the subset of a go-redis client used by DeleteByPrefix.
type KeyScanner interface {
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// DeleteByPrefix removes every key starting with prefix and returns how many
// were deleted. It walks the keyspace with SCAN so the server is never
// blocked by KEYS. An empty prefix is rejected to keep it from wiping the
// whole database.
func DeleteByPrefix(ctx context.Context, client KeyScanner, prefix string, batch int64) (int64, error) {
	if prefix == "" {
		return 0, ErrEmptyKeyPrefix
	}
	if batch <= 0 {
		batch = 500
	}

	var (
		cursor  uint64
		deleted int64
	)
	for {
		keys, next, err := client.Scan(ctx, cursor, prefix+"*", batch).Result()
		if err != nil {
			return deleted, errors.Join(ErrScanFailed, err)
		}
		if len(keys) > 0 {
			n, err := client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, errors.Join(ErrScanFailed, err)
			}
			deleted += n
		}
		if next == 0 {
			return deleted, nil
		}
		cursor = next
	}
}

package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/pamonha-express/server/internal/core/error"
	logx "github.com/pamonha-express/server/pkg/logger"
)

// counterTTL keeps yesterday's key around long enough to inspect.
const counterTTL = 48 * time.Hour

// RedisStore keeps one INCR counter per day, so the date rollover is implicit
// in the key.
type RedisStore struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisStore(rdb redis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: "quota:generative"}
}

func (r *RedisStore) key(day string) string {
	return fmt.Sprintf("%s:%s", r.prefix, day)
}

func (r *RedisStore) Count(ctx context.Context, day string) (int64, error) {
	n, err := r.rdb.Get(ctx, r.key(day)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		logx.Error().Err(err).Str("key", r.key(day)).Msg("failed to read quota counter")
		return 0, errx.WrapRedis(err)
	}
	return n, nil
}

func (r *RedisStore) Incr(ctx context.Context, day string) (int64, error) {
	key := r.key(day)
	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, counterTTL)
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to increment quota counter")
		return 0, errx.WrapRedis(err)
	}
	return incr.Val(), nil
}

var _ Store = (*RedisStore)(nil)

package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	errx "github.com/pamonha-express/server/internal/core/error"
	logx "github.com/pamonha-express/server/pkg/logger"
)

// RedisArchive stores each document under its own key and the index as a
// list. SETNX claims a name, LPUSH keeps the list most-recent-first without a
// read-modify-write.
type RedisArchive struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisArchive(rdb redis.Cmdable) *RedisArchive {
	return &RedisArchive{rdb: rdb, prefix: "archive"}
}

func (r *RedisArchive) docKey(kind Kind, name string) string {
	return fmt.Sprintf("%s:%s:doc:%s", r.prefix, kind, name)
}

func (r *RedisArchive) indexKey(kind Kind) string {
	return fmt.Sprintf("%s:%s:index", r.prefix, kind)
}

func (r *RedisArchive) Put(ctx context.Context, kind Kind, name string, body []byte) (string, error) {
	if err := validate(kind, name); err != nil {
		return "", err
	}
	for n := 1; n <= maxNameAttempts; n++ {
		c := candidate(name, n)
		ok, err := r.rdb.SetNX(ctx, r.docKey(kind, c), body, 0).Result()
		if err != nil {
			logx.Error().Err(err).Str("kind", string(kind)).Str("name", c).Msg("failed to archive document in redis")
			return "", errx.WrapRedis(err)
		}
		if !ok {
			continue
		}
		if err := r.rdb.LPush(ctx, r.indexKey(kind), c).Err(); err != nil {
			logx.Error().Err(err).Str("kind", string(kind)).Str("name", c).Msg("failed to index archived document in redis")
			_ = r.rdb.Del(ctx, r.docKey(kind, c)).Err()
			return "", errx.WrapRedis(err)
		}
		return c, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNameTaken, name)
}

func (r *RedisArchive) Get(ctx context.Context, kind Kind, name string) ([]byte, error) {
	if err := validate(kind, name); err != nil {
		return nil, err
	}
	data, err := r.rdb.Get(ctx, r.docKey(kind, name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, errx.WrapRedis(err)
	}
	return data, nil
}

func (r *RedisArchive) Index(ctx context.Context, kind Kind) ([]string, error) {
	if err := validate(kind, "index"); err != nil {
		return nil, err
	}
	names, err := r.rdb.LRange(ctx, r.indexKey(kind), 0, -1).Result()
	if err != nil {
		return nil, errx.WrapRedis(err)
	}
	return names, nil
}

var _ Archive = (*RedisArchive)(nil)

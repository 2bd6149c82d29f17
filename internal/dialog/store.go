package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	errx "github.com/pamonha-express/server/internal/core/error"
	logx "github.com/pamonha-express/server/pkg/logger"
)

var ErrSessionNotFound = errors.New("session not found")

// Store persists sessions between turns. Sessions idle for longer than the
// store's TTL are forgotten.
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
}

// MemoryStore keeps sessions in a go-cache with sliding expiry.
type MemoryStore struct {
	items *cache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	exp := cache.NoExpiration
	if ttl > 0 {
		exp = ttl
	}
	return &MemoryStore{items: cache.New(exp, 10*time.Minute)}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	v, ok := m.items.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return v.(*Session), nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.items.Set(s.ID, s, cache.DefaultExpiration)
	return nil
}

// RedisStore keeps each session as a JSON value with a TTL refreshed on save.
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (r *RedisStore) key(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (r *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	data, err := r.rdb.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		logx.Error().Err(err).Str("session_id", id).Msg("failed to load session from redis")
		return nil, errx.WrapRedis(err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", s.ID, err)
	}
	if err := r.rdb.Set(ctx, r.key(s.ID), data, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("session_id", s.ID).Msg("failed to save session to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)

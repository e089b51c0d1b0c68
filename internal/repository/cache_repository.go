package repository

import (
	"context"
	"errors"
	"time"

	"coffee_configurator/internal/storage"
	redisapp "coffee_configurator/internal/storage/redis"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

type RedisCacheRepo struct {
	Client *redisapp.Client
}

func NewRedisCacheRepo(client *redisapp.Client) *RedisCacheRepo {
	return &RedisCacheRepo{Client: client}
}

func (r *RedisCacheRepo) Get(ctx context.Context, key string) (string, error) {
	val, err := r.Client.Get(ctx, r.Client.Key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", storage.ErrorNoSuchKey
	}

	return val, err
}

func (r *RedisCacheRepo) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.Client.Set(ctx, r.Client.Key(key), value, ttl).Err()
}

func (r *RedisCacheRepo) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	return r.Client.Del(ctx, r.Client.Keys(keys...)...).Err()
}

// MemoryCacheRepo — кеш в памяти процесса, используется когда Redis не настроен
type MemoryCacheRepo struct {
	cache *gocache.Cache
}

func NewMemoryCacheRepo(cleanupInterval time.Duration) *MemoryCacheRepo {
	return &MemoryCacheRepo{
		cache: gocache.New(gocache.NoExpiration, cleanupInterval),
	}
}

func (m *MemoryCacheRepo) Get(_ context.Context, key string) (string, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return "", storage.ErrorNoSuchKey
	}

	s, ok := v.(string)
	if !ok {
		return "", storage.ErrorNoSuchKey
	}

	return s, nil
}

func (m *MemoryCacheRepo) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.cache.Set(key, value, ttl)

	return nil
}

func (m *MemoryCacheRepo) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.cache.Delete(k)
	}

	return nil
}

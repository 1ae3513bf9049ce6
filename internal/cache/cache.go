package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/config"
)

// Store represents a generic cache backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// ErrCacheMiss indicates the key is absent from the cache.
var ErrCacheMiss = errors.New("cache miss")

// Module provides the redis client and the cache store to the Fx graph.
var Module = fx.Provide(NewRedisClient, NewStore)

// NewRedisClient opens the shared redis client. It returns nil when the cache
// driver is not redis; consumers fall back to in-process behaviour.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) *goredis.Client {
	if cfg.Cache.Driver != "redis" {
		return nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("ping redis: %w", err)
			}
			logger.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("closing redis client")
			return client.Close()
		},
	})

	return client
}

// NewStore selects the configured cache store.
func NewStore(cfg config.Config, client *goredis.Client, logger *zap.Logger) (Store, error) {
	switch cfg.Cache.Driver {
	case "noop":
		logger.Info("cache disabled; using noop store")
		return noopStore{}, nil
	case "memory":
		return NewMemoryStore(cfg.Cache.DefaultTTL), nil
	case "redis":
		if client == nil {
			return nil, errors.New("redis cache selected without a redis client")
		}
		return &redisStore{client: client, defaultTTL: cfg.Cache.DefaultTTL}, nil
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}
}

// GetJSON decodes a cached JSON value into dst. It reports false on a miss.
func GetJSON(ctx context.Context, store Store, key string, dst any) (bool, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// Stale or foreign payload; drop it.
		_ = store.Delete(ctx, key)
		return false, nil
	}
	return true, nil
}

// SetJSON encodes value as JSON and stores it.
func SetJSON(ctx context.Context, store Store, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, raw, ttl)
}

type noopStore struct{}

func (noopStore) Get(context.Context, string) ([]byte, error) {
	return nil, ErrCacheMiss
}

func (noopStore) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (noopStore) Delete(context.Context, ...string) error {
	return nil
}

func (noopStore) DeletePrefix(context.Context, string) error {
	return nil
}

// NewNoopStore returns a store that never holds anything.
func NewNoopStore() Store { return noopStore{} }

type redisStore struct {
	client     *goredis.Client
	defaultTTL time.Duration
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrCacheMiss
	}
	res, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("cache key is required")
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *redisStore) Delete(ctx context.Context, keys ...string) error {
	filtered := keys[:0:0]
	for _, k := range keys {
		if k != "" {
			filtered = append(filtered, k)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return s.client.Del(ctx, filtered...).Err()
}

func (s *redisStore) DeletePrefix(ctx context.Context, prefix string) error {
	if prefix == "" {
		return errors.New("cache prefix is required")
	}
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return s.Delete(ctx, keys...)
}

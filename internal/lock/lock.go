// Package lock provides redis-backed mutual exclusion across replicas.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/config"
)

// ErrNotObtained is returned when another holder owns the lock.
var ErrNotObtained = errors.New("lock not obtained")

// Locker runs callbacks while holding named locks.
type Locker interface {
	// TryWithLock runs fn only if key is free right now.
	TryWithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
	// WithLocks waits briefly for every key, in sorted order, then runs fn.
	WithLocks(ctx context.Context, keys []string, fn func(ctx context.Context) error) error
}

// Module provides the Locker to Fx.
var Module = fx.Provide(New)

// New returns a redislock-backed Locker, or an in-process one when redis is unavailable.
func New(cfg config.Config, client *goredis.Client, logger *zap.Logger) Locker {
	if !cfg.Locks.Enabled || client == nil {
		logger.Info("distributed locks disabled; using process-local locks")
		return NewLocal()
	}
	return &redisLocker{
		client: redislock.New(client),
		ttl:    cfg.Locks.TTL,
		logger: logger,
	}
}

type redisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	logger *zap.Logger
}

func (l *redisLocker) TryWithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	lk, err := l.client.Obtain(ctx, key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return ErrNotObtained
	}
	if err != nil {
		return fmt.Errorf("obtain lock %s: %w", key, err)
	}
	defer l.release(lk)

	return fn(ctx)
}

func (l *redisLocker) WithLocks(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 40),
	}

	held := make([]*redislock.Lock, 0, len(keys))
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.release(held[i])
		}
	}()

	for _, key := range sortedUnique(keys) {
		lk, err := l.client.Obtain(ctx, key, l.ttl, opts)
		if errors.Is(err, redislock.ErrNotObtained) {
			return ErrNotObtained
		}
		if err != nil {
			return fmt.Errorf("obtain lock %s: %w", key, err)
		}
		held = append(held, lk)
	}

	return fn(ctx)
}

func (l *redisLocker) release(lk *redislock.Lock) {
	// Release must run even when the request context is already done.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := lk.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
		l.logger.Warn("release lock failed", zap.String("key", lk.Key()), zap.Error(err))
	}
}

// LocalLocker serialises callers within one process.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	held  map[string]bool
}

// NewLocal builds a process-local Locker.
func NewLocal() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*sync.Mutex), held: make(map[string]bool)}
}

func (l *LocalLocker) TryWithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	if l.held[key] {
		l.mu.Unlock()
		return ErrNotObtained
	}
	l.held[key] = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}()
	return fn(ctx)
}

func (l *LocalLocker) WithLocks(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	sorted := sortedUnique(keys)
	mutexes := make([]*sync.Mutex, 0, len(sorted))

	l.mu.Lock()
	for _, key := range sorted {
		m, ok := l.locks[key]
		if !ok {
			m = &sync.Mutex{}
			l.locks[key] = m
		}
		mutexes = append(mutexes, m)
	}
	l.mu.Unlock()

	for _, m := range mutexes {
		m.Lock()
	}
	defer func() {
		for i := len(mutexes) - 1; i >= 0; i-- {
			mutexes[i].Unlock()
		}
	}()
	return fn(ctx)
}

func sortedUnique(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok || k == "" {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// PartKey names the lock guarding one part's stock.
func PartKey(partID int64) string {
	return fmt.Sprintf("lock:part:%d", partID)
}

// JobKey names the lock guarding a periodic job.
func JobKey(name string) string {
	return "lock:job:" + name
}

package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"coinpredict/internal/config"
)

type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// New picks redis when an address is configured, a badger directory when one
// is set, and memory otherwise.
func New(cfg config.CacheConfig) (Store, error) {
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		return NewRedisStore(&redis.Options{
			Addr:     addr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.KeyPrefix), nil
	}
	if dir := strings.TrimSpace(cfg.Dir); dir != "" {
		return OpenBadgerStore(dir)
	}
	m := NewMemoryStore()
	if cfg.MemoryMaxEntries > 0 {
		m.MaxEntries = cfg.MemoryMaxEntries
	}
	return m, nil
}

// GetJSON decodes a cached value into out. A value that no longer decodes is
// reported as a miss.
func GetJSON(ctx context.Context, s Store, key string, out any) (bool, error) {
	if s == nil {
		return false, nil
	}
	raw, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, nil
	}
	return true, nil
}

func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	if s == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, raw, ttl)
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"coinpredict/internal/config"
)

func TestMemoryStore_TTL(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok, _ := s.Get(ctx, "k"); !ok || string(v) != "v" {
		t.Fatalf("get=%q ok=%v", v, ok)
	}
	now = now.Add(2 * time.Minute)
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatalf("expected expiry")
	}
}

func TestMemoryStore_NoTTLAndDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_ = s.Set(ctx, "k", []byte("v"), 0)
	if _, ok, _ := s.Get(ctx, "k"); !ok {
		t.Fatalf("expected hit")
	}
	_ = s.Delete(ctx, "k")
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestMemoryStore_BoundedEvictsExpiredThenSoonest(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := NewMemoryStore()
	s.MaxEntries = 2
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_ = s.Set(ctx, "short", []byte("1"), time.Second)
	_ = s.Set(ctx, "forever", []byte("2"), 0)
	now = now.Add(2 * time.Second)
	_ = s.Set(ctx, "new", []byte("3"), time.Hour)
	if s.Len() != 2 {
		t.Fatalf("len=%d want 2", s.Len())
	}
	if _, ok, _ := s.Get(ctx, "forever"); !ok {
		t.Fatalf("expired entry should have been evicted first")
	}

	_ = s.Set(ctx, "newer", []byte("4"), 2*time.Hour)
	if _, ok, _ := s.Get(ctx, "new"); ok {
		t.Fatalf("entry closest to expiry should be evicted")
	}
	if _, ok, _ := s.Get(ctx, "forever"); !ok {
		t.Fatalf("entry without expiry evicted before one with expiry")
	}
	// Overwriting an existing key never evicts.
	_ = s.Set(ctx, "newer", []byte("5"), 2*time.Hour)
	if s.Len() != 2 {
		t.Fatalf("len=%d after overwrite", s.Len())
	}
}

func TestRedisStore_NamespacesKeys(t *testing.T) {
	rs := NewRedisStore(&redis.Options{Addr: "127.0.0.1:6379"}, "coinpredict:")
	defer rs.Close()
	if got := rs.key("markets:top"); got != "coinpredict:markets:top" {
		t.Fatalf("key=%q", got)
	}
}

func TestJSONHelpers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	type row struct {
		ID string `json:"id"`
	}
	if err := SetJSON(ctx, s, "rows", []row{{ID: "bitcoin"}}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var out []row
	found, err := GetJSON(ctx, s, "rows", &out)
	if err != nil || !found || len(out) != 1 || out[0].ID != "bitcoin" {
		t.Fatalf("found=%v err=%v out=%+v", found, err, out)
	}
	_ = s.Set(ctx, "bad", []byte("{"), time.Minute)
	if found, _ := GetJSON(ctx, s, "bad", &out); found {
		t.Fatalf("corrupt value should be a miss")
	}
}

func TestNew_SelectsBackend(t *testing.T) {
	s, err := New(config.CacheConfig{MemoryMaxEntries: 7})
	if m, ok := s.(*MemoryStore); err != nil || !ok || m.MaxEntries != 7 {
		t.Fatalf("expected memory store with max 7, err=%v", err)
	}
	s, err = New(config.CacheConfig{RedisAddr: "127.0.0.1:6379", Dir: t.TempDir()})
	rs, ok := s.(*RedisStore)
	if err != nil || !ok {
		t.Fatalf("expected redis store, err=%v", err)
	}
	_ = rs.Close()
	s, err = New(config.CacheConfig{Dir: t.TempDir()})
	bs, ok := s.(*BadgerStore)
	if err != nil || !ok {
		t.Fatalf("expected badger store, err=%v", err)
	}
	_ = bs.Close()
}

package cache

import (
	"context"
	"testing"
	"time"
)

func TestLRUGetSet(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %v/%v", v, ok)
	}
	// b is now least recently used
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
	c.Set("a", 10)
	if v, _ := c.Get("a"); v != 10 {
		t.Fatalf("expected overwrite, got %d", v)
	}
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected a deleted")
	}
	st := c.Stats()
	if st.Hits != 2 || st.Misses != 2 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if r := st.HitRatio(); r != 0.5 {
		t.Fatalf("expected hit ratio 0.5, got %v", r)
	}
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("old", "x")
	now = now.Add(30 * time.Second)
	c.Set("new", "y")
	now = now.Add(45 * time.Second)

	if _, ok := c.Get("old"); ok {
		t.Fatal("expected old to be expired")
	}
	if removed := c.CleanExpired(); removed != 0 {
		t.Fatalf("expected nothing left to clean, removed %d", removed)
	}
	now = now.Add(time.Minute)
	if removed := c.CleanExpired(); removed != 1 || c.Size() != 0 {
		t.Fatalf("expected new to be cleaned, removed %d, size %d", removed, c.Size())
	}
}

func TestLRUNoTTL(t *testing.T) {
	c := NewLRUCache[int](1, 0)
	c.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	c.Set("k", 1)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entries without TTL must not expire")
	}
}

func TestManager(t *testing.T) {
	now := time.Now()
	c := NewLRUCache[int](10, time.Second)
	c.now = func() time.Time { return now }
	c.Set("a", 1)
	c.Set("b", 2)
	now = now.Add(2 * time.Second)

	m := NewManager()
	m.Register("numbers", c)
	if n := m.CleanNow(); n != 2 {
		t.Fatalf("expected 2 evictions, got %d", n)
	}

	m.StartCleanup(time.Millisecond)
	m.StartCleanup(time.Millisecond)
	m.Stop()
	m.Stop()
}

func TestManagerStopWithoutStart(t *testing.T) {
	done := make(chan struct{})
	go func() {
		NewManager().Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without a running cleanup")
	}
}

func TestRedisUnavailableIsMiss(t *testing.T) {
	client := NewRedisClient("127.0.0.1:1")
	defer client.Close()
	c := NewRedisCache[int](client, "test:", time.Minute)

	c.Set("k", 1)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss when redis is unreachable")
	}
	if st := c.Stats(); st.Misses != 1 || st.Hits != 0 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if c.key("k") != "test:k" {
		t.Fatalf("unexpected key %q", c.key("k"))
	}
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	none, err := Build[int](ctx, Options{Backend: "none"})
	if err != nil || none.Cache != nil {
		t.Fatalf("expected no cache, got %v err=%v", none.Cache, err)
	}
	if err := none.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	mem, err := Build[int](ctx, Options{Backend: "memory", Size: 5, TTL: time.Minute})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := mem.Cache.(*LRUCache[int]); !ok || mem.Cleaner == nil {
		t.Fatalf("expected LRU cache, got %T", mem.Cache)
	}

	if _, err := Build[int](ctx, Options{Backend: "memcached"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestBuildRedisFallsBack(t *testing.T) {
	b, err := Build[int](context.Background(), Options{Backend: "redis", RedisAddr: "127.0.0.1:1", TTL: time.Minute})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := b.Cache.(*LRUCache[int]); !ok {
		t.Fatalf("expected LRU fallback, got %T", b.Cache)
	}
}

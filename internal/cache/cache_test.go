package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryCache_RoundTrip(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCache(DefaultTTL, clock.Now)
	ctx := context.Background()

	key := Key("write about cats", "")
	if err := c.Put(ctx, key, "A detailed prompt about cats."); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry, ok := c.Get(ctx, key)
	if !ok {
		t.Fatal("expected cache hit after put")
	}
	if entry.Prompt != "A detailed prompt about cats." {
		t.Errorf("prompt = %q", entry.Prompt)
	}
	if !entry.CreatedAt.Equal(clock.Now()) {
		t.Errorf("createdAt = %v, want %v", entry.CreatedAt, clock.Now())
	}
}

func TestMemoryCache_MissOnUnknownKey(t *testing.T) {
	c := NewMemoryCache(DefaultTTL, nil)

	if _, ok := c.Get(context.Background(), Key("nothing", "")); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCache(DefaultTTL, clock.Now)
	ctx := context.Background()

	key := Key("text", "ctx")
	c.Put(ctx, key, "prompt")

	clock.Advance(DefaultTTL - time.Second)
	if _, ok := c.Get(ctx, key); !ok {
		t.Error("expected hit just before the retention window")
	}

	clock.Advance(2 * time.Second)
	if _, ok := c.Get(ctx, key); ok {
		t.Error("expected miss just after the retention window")
	}

	// Get reports a miss but does not delete; the entry stays until a sweep.
	if c.Len() != 1 {
		t.Errorf("len = %d, want 1 (expired entry retained until sweep)", c.Len())
	}
}

func TestMemoryCache_SweepOnPut(t *testing.T) {
	clock := newFakeClock()
	c := NewMemoryCache(DefaultTTL, clock.Now)
	ctx := context.Background()

	c.Put(ctx, Key("old", ""), "old prompt")

	clock.Advance(DefaultTTL + time.Minute)
	c.Put(ctx, Key("new", ""), "new prompt")

	if c.Len() != 1 {
		t.Errorf("len = %d, want 1 after sweep", c.Len())
	}
	if _, ok := c.Get(ctx, Key("new", "")); !ok {
		t.Error("fresh entry should survive the sweep")
	}
}

func TestMemoryCache_LastWriteWins(t *testing.T) {
	c := NewMemoryCache(DefaultTTL, nil)
	ctx := context.Background()

	key := Key("text", "")
	c.Put(ctx, key, "first")
	c.Put(ctx, key, "second")

	entry, ok := c.Get(ctx, key)
	if !ok || entry.Prompt != "second" {
		t.Errorf("entry = %+v, want last write", entry)
	}
	if c.Len() != 1 {
		t.Errorf("len = %d, want 1 (at most one entry per key)", c.Len())
	}
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := NewMemoryCache(DefaultTTL, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := Key("shared", "")
				c.Put(ctx, key, "prompt")
				c.Get(ctx, key)
			}
		}()
	}
	wg.Wait()

	if _, ok := c.Get(ctx, Key("shared", "")); !ok {
		t.Error("expected hit after concurrent writes")
	}
}

func TestKey_DistinctInputs(t *testing.T) {
	pairs := [][2][2]string{
		{{"a:b", "c"}, {"a", "b:c"}},
		{{"text", ""}, {"", "text"}},
		{{"1:a", "b"}, {"1:a:b", ""}},
	}

	for _, p := range pairs {
		k1 := Key(p[0][0], p[0][1])
		k2 := Key(p[1][0], p[1][1])
		if k1 == k2 {
			t.Errorf("Key%v == Key%v == %q, want distinct", p[0], p[1], k1)
		}
	}

	if Key("a", "b") != Key("a", "b") {
		t.Error("Key is not deterministic")
	}
}

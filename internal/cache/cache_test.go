package cache

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(maxSize int) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cfg := DefaultConfig()
	cfg.MaxSize = maxSize
	return New(cfg, WithClock(clock.Now)), clock
}

type searchParams struct {
	Query    string `json:"query"`
	Page     int    `json:"page"`
	Language string `json:"language"`
}

func TestCache_SetAndGet(t *testing.T) {
	c, _ := newTestCache(10)
	params := searchParams{Query: "the matrix", Page: 1, Language: "en"}

	c.Set(CategorySearch, params, "result")

	v, ok := c.Get(CategorySearch, params)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if v != "result" {
		t.Errorf("Get() = %v, want result", v)
	}

	if _, ok := c.Get(CategorySearch, searchParams{Query: "the matrix", Page: 2, Language: "en"}); ok {
		t.Error("different params should miss")
	}
	if _, ok := c.Get(CategoryMediaDetails, params); ok {
		t.Error("same params in another category should miss")
	}
}

func TestCache_ExpiredEntryIsRemoved(t *testing.T) {
	c, clock := newTestCache(10)
	params := searchParams{Query: "dune"}

	c.Set(CategorySearch, params, 1)
	clock.Advance(DefaultSearchTTL - time.Second)
	if _, ok := c.Get(CategorySearch, params); !ok {
		t.Fatal("entry should still be fresh")
	}

	clock.Advance(2 * time.Second)
	if _, ok := c.Get(CategorySearch, params); ok {
		t.Error("expected miss after TTL")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after expired get", c.Len())
	}
}

func TestCache_PerCategoryTTL(t *testing.T) {
	c, clock := newTestCache(10)

	c.Set(CategoryRequests, "list", 1)
	c.Set(CategoryMediaDetails, "movie:603", 2)

	clock.Advance(2 * time.Minute)

	if _, ok := c.Get(CategoryRequests, "list"); ok {
		t.Error("requests entry should expire after its 1m TTL")
	}
	if _, ok := c.Get(CategoryMediaDetails, "movie:603"); !ok {
		t.Error("details entry should survive with its 30m TTL")
	}
}

func TestCache_Invalidate(t *testing.T) {
	c, _ := newTestCache(10)

	c.Set(CategorySearch, "a", 1)
	c.Set(CategoryRequests, "b", 2)
	c.Set(CategoryMediaDetails, "c", 3)

	removed := c.Invalidate(CategoryRequests, CategoryMediaDetails)
	if removed != 2 {
		t.Errorf("Invalidate() removed %d, want 2", removed)
	}
	if _, ok := c.Get(CategoryRequests, "b"); ok {
		t.Error("requests entry should be gone")
	}
	if _, ok := c.Get(CategorySearch, "a"); !ok {
		t.Error("search entry should survive")
	}

	c.InvalidateAll()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after InvalidateAll, want 0", c.Len())
	}
}

func TestCache_EvictsLeastReadEntry(t *testing.T) {
	c, _ := newTestCache(3)

	c.Set(CategorySearch, "a", 1)
	c.Set(CategorySearch, "b", 2)
	c.Set(CategorySearch, "c", 3)

	// "b" is read least; "a" is the oldest, which an LRU would drop instead.
	c.Get(CategorySearch, "a")
	c.Get(CategorySearch, "a")
	c.Get(CategorySearch, "c")

	c.Set(CategorySearch, "d", 4)

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	if _, ok := c.Get(CategorySearch, "b"); ok {
		t.Error("least-read entry b should have been evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := c.Get(CategorySearch, k); !ok {
			t.Errorf("entry %s should still be cached", k)
		}
	}
}

func TestCache_OverwriteDoesNotEvict(t *testing.T) {
	c, _ := newTestCache(2)

	c.Set(CategorySearch, "a", 1)
	c.Set(CategorySearch, "b", 2)
	c.Set(CategorySearch, "a", 10)

	if v, _ := c.Get(CategorySearch, "a"); v != 10 {
		t.Errorf("Get(a) = %v, want 10", v)
	}
	if _, ok := c.Get(CategorySearch, "b"); !ok {
		t.Error("b should not be evicted by an overwrite")
	}
}

func TestCache_SlotsAreReused(t *testing.T) {
	c, _ := newTestCache(2)

	for i := range 50 {
		c.Set(CategorySearch, i, i)
	}
	if len(c.arena) > 2 {
		t.Errorf("arena grew to %d slots, want at most 2", len(c.arena))
	}
}

func TestCache_FailsOpenOnUnencodableParams(t *testing.T) {
	c, _ := newTestCache(10)
	bad := map[string]any{"ch": make(chan int)}

	c.Set(CategorySearch, bad, 1)
	if _, ok := c.Get(CategorySearch, bad); ok {
		t.Error("unencodable params should miss")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestCache_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	c := New(cfg)

	c.Set(CategorySearch, "a", 1)
	if _, ok := c.Get(CategorySearch, "a"); ok {
		t.Error("disabled cache should never hit")
	}
}

func TestCache_Prune(t *testing.T) {
	c, clock := newTestCache(10)

	c.Set(CategoryRequests, "a", 1)
	c.Set(CategorySearch, "b", 2)
	clock.Advance(2 * time.Minute)

	if n := c.Prune(); n != 1 {
		t.Errorf("Prune() = %d, want 1", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCache_Stats(t *testing.T) {
	c, _ := newTestCache(10)

	c.Set(CategorySearch, "a", 1)
	c.Get(CategorySearch, "a")
	c.Get(CategorySearch, "a")
	c.Get(CategorySearch, "missing")
	c.Get(CategoryRequests, "missing")

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 2 {
		t.Errorf("Stats hits/misses = %d/%d, want 2/2", s.Hits, s.Misses)
	}
	if s.HitRate != 50 {
		t.Errorf("HitRate = %v, want 50", s.HitRate)
	}
	search := s.Categories[CategorySearch]
	if search.Hits != 2 || search.Misses != 1 || search.Entries != 1 {
		t.Errorf("search stats = %+v", search)
	}

	c.ResetStats()
	if s := c.Stats(); s.Hits != 0 || s.Misses != 0 {
		t.Errorf("ResetStats left %d/%d", s.Hits, s.Misses)
	}
}

func TestGetAs(t *testing.T) {
	c, _ := newTestCache(10)
	c.Set(CategorySearch, "a", []string{"x"})

	got, ok := GetAs[[]string](c, CategorySearch, "a")
	if !ok || len(got) != 1 {
		t.Fatalf("GetAs() = %v, %v", got, ok)
	}
	if _, ok := GetAs[int](c, CategorySearch, "a"); ok {
		t.Error("wrong type should miss")
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c, _ := newTestCache(50)
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := range 100 {
				c.Set(CategorySearch, j%70, n)
				c.Get(CategorySearch, j%70)
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 50 {
		t.Errorf("Len() = %d exceeds max size", c.Len())
	}
}

// Package cache provides the in-memory lookup cache that sits in front of the
// downstream media-request API.
package cache

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Category partitions cache entries. Each category has its own TTL.
type Category string

const (
	CategorySearch       Category = "search"
	CategoryMediaDetails Category = "mediaDetails"
	CategoryRequests     Category = "requests"
)

// Categories lists every known category in a stable order.
var Categories = []Category{CategorySearch, CategoryMediaDetails, CategoryRequests}

const (
	DefaultMaxSize     = 1000
	DefaultSearchTTL   = 5 * time.Minute
	DefaultMediaTTL    = 30 * time.Minute
	DefaultRequestsTTL = time.Minute
)

// Config configures a Cache.
type Config struct {
	Enabled bool
	MaxSize int
	TTL     map[Category]time.Duration
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		MaxSize: DefaultMaxSize,
		TTL: map[Category]time.Duration{
			CategorySearch:       DefaultSearchTTL,
			CategoryMediaDetails: DefaultMediaTTL,
			CategoryRequests:     DefaultRequestsTTL,
		},
	}
}

type entry struct {
	key       string
	category  Category
	value     any
	expiresAt time.Time
	hits      int
}

// Cache is a bounded TTL cache with frequency-based eviction: when full, the
// entry with the fewest reads is dropped. Entries live in an arena slice
// indexed by key; freed slots are reused.
type Cache struct {
	mu     sync.Mutex
	cfg    Config
	arena  []entry
	live   []bool
	free   []int
	index  map[string]int
	stats  map[Category]*counter
	now    func() time.Time
	logger zerolog.Logger
}

type counter struct {
	hits   uint64
	misses uint64
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger attaches a logger for fail-open diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Cache) { c.logger = logger.With().Str("component", "cache").Logger() }
}

// New creates a cache. A non-positive MaxSize falls back to DefaultMaxSize
// and missing TTLs fall back to the category defaults.
func New(cfg Config, opts ...Option) *Cache {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	defaults := DefaultConfig().TTL
	ttl := make(map[Category]time.Duration, len(defaults))
	for cat, d := range defaults {
		ttl[cat] = d
	}
	for cat, d := range cfg.TTL {
		if d > 0 {
			ttl[cat] = d
		}
	}
	cfg.TTL = ttl

	c := &Cache{
		cfg:    cfg,
		index:  make(map[string]int),
		stats:  make(map[Category]*counter),
		now:    time.Now,
		logger: zerolog.Nop(),
	}
	for _, cat := range Categories {
		c.stats[cat] = &counter{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key builds the cache key for a category and its parameters. Params are
// JSON-encoded, so struct field order is stable and map keys are sorted.
func Key(category Category, params any) (string, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to encode cache params: %w", err)
	}
	return string(category) + ":" + string(data), nil
}

// Enabled reports whether the cache stores anything.
func (c *Cache) Enabled() bool {
	return c.cfg.Enabled
}

// Get returns the cached value for the category and params. Expired entries
// are removed and reported as misses. Any internal failure is a miss.
func (c *Cache) Get(category Category, params any) (value any, ok bool) {
	if !c.cfg.Enabled {
		return nil, false
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn().Interface("panic", r).Str("category", string(category)).Msg("Cache lookup failed, treating as miss")
			value, ok = nil, false
		}
	}()

	key, err := Key(category, params)
	if err != nil {
		c.logger.Debug().Err(err).Str("category", string(category)).Msg("Cache key encoding failed")
		c.recordMiss(category)
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	stat := c.counterFor(category)
	slot, found := c.index[key]
	if !found {
		stat.misses++
		return nil, false
	}

	e := &c.arena[slot]
	if !c.now().Before(e.expiresAt) {
		c.removeSlot(slot)
		stat.misses++
		return nil, false
	}

	e.hits++
	stat.hits++
	return e.value, true
}

// GetAs is Get with a type assertion. A value of another type is a miss.
func GetAs[T any](c *Cache, category Category, params any) (T, bool) {
	var zero T
	v, ok := c.Get(category, params)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Set stores a value, evicting the least-read entry first when full.
// Failures are logged and swallowed.
func (c *Cache) Set(category Category, params any, value any) {
	if !c.cfg.Enabled {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn().Interface("panic", r).Str("category", string(category)).Msg("Cache store failed")
		}
	}()

	key, err := Key(category, params)
	if err != nil {
		c.logger.Debug().Err(err).Str("category", string(category)).Msg("Cache key encoding failed")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttlFor(category))

	if slot, found := c.index[key]; found {
		e := &c.arena[slot]
		e.value = value
		e.expiresAt = expiresAt
		return
	}

	if len(c.index) >= c.cfg.MaxSize {
		c.evictLocked()
	}

	e := entry{key: key, category: category, value: value, expiresAt: expiresAt}
	var slot int
	if n := len(c.free); n > 0 {
		slot = c.free[n-1]
		c.free = c.free[:n-1]
		c.arena[slot] = e
		c.live[slot] = true
	} else {
		slot = len(c.arena)
		c.arena = append(c.arena, e)
		c.live = append(c.live, true)
	}
	c.index[key] = slot
}

// Invalidate removes every entry of the given categories. With no
// categories it clears the whole cache.
func (c *Cache) Invalidate(categories ...Category) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(categories) == 0 {
		removed := len(c.index)
		c.resetLocked()
		return removed
	}

	removed := 0
	for _, cat := range categories {
		prefix := string(cat) + ":"
		for key, slot := range c.index {
			if strings.HasPrefix(key, prefix) {
				c.removeSlot(slot)
				removed++
			}
		}
	}
	return removed
}

// InvalidateAll clears the cache.
func (c *Cache) InvalidateAll() int {
	return c.Invalidate()
}

// Prune removes all expired entries and returns how many were dropped.
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for _, slot := range c.index {
		if !now.Before(c.arena[slot].expiresAt) {
			c.removeSlot(slot)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// evictLocked drops the entry with the lowest read count.
func (c *Cache) evictLocked() {
	victim := -1
	for _, slot := range c.index {
		if victim < 0 || c.arena[slot].hits < c.arena[victim].hits {
			victim = slot
		}
	}
	if victim >= 0 {
		c.logger.Debug().Str("key", c.arena[victim].key).Int("hits", c.arena[victim].hits).Msg("Evicting cache entry")
		c.removeSlot(victim)
	}
}

func (c *Cache) removeSlot(slot int) {
	if !c.live[slot] {
		return
	}
	delete(c.index, c.arena[slot].key)
	c.arena[slot] = entry{}
	c.live[slot] = false
	c.free = append(c.free, slot)
}

func (c *Cache) resetLocked() {
	c.arena = nil
	c.live = nil
	c.free = nil
	c.index = make(map[string]int)
}

func (c *Cache) ttlFor(category Category) time.Duration {
	if d, ok := c.cfg.TTL[category]; ok && d > 0 {
		return d
	}
	return DefaultSearchTTL
}

func (c *Cache) counterFor(category Category) *counter {
	stat, ok := c.stats[category]
	if !ok {
		stat = &counter{}
		c.stats[category] = stat
	}
	return stat
}

func (c *Cache) recordMiss(category Category) {
	c.mu.Lock()
	c.counterFor(category).misses++
	c.mu.Unlock()
}

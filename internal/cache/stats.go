package cache

// CategoryStats holds hit/miss counters for one category.
type CategoryStats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hitRate"`
	Entries int     `json:"entries"`
}

// Stats is a snapshot of the cache counters.
type Stats struct {
	Enabled    bool                       `json:"enabled"`
	Size       int                        `json:"size"`
	MaxSize    int                        `json:"maxSize"`
	Hits       uint64                     `json:"hits"`
	Misses     uint64                     `json:"misses"`
	HitRate    float64                    `json:"hitRate"`
	Categories map[Category]CategoryStats `json:"categories"`
}

// Stats returns a snapshot of the counters. Hit rates are percentages.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make(map[Category]int, len(c.stats))
	for _, slot := range c.index {
		entries[c.arena[slot].category]++
	}

	s := Stats{
		Enabled:    c.cfg.Enabled,
		Size:       len(c.index),
		MaxSize:    c.cfg.MaxSize,
		Categories: make(map[Category]CategoryStats, len(c.stats)),
	}
	for cat, ctr := range c.stats {
		s.Hits += ctr.hits
		s.Misses += ctr.misses
		s.Categories[cat] = CategoryStats{
			Hits:    ctr.hits,
			Misses:  ctr.misses,
			HitRate: hitRate(ctr.hits, ctr.misses),
			Entries: entries[cat],
		}
	}
	s.HitRate = hitRate(s.Hits, s.Misses)
	return s
}

// ResetStats zeroes all counters without touching entries.
func (c *Cache) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ctr := range c.stats {
		ctr.hits, ctr.misses = 0, 0
	}
}

func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

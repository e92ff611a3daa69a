package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jmhodges/clock"

	"github.com/carlosnayan/sqlpp/internal/limits"
	"github.com/carlosnayan/sqlpp/internal/parser"
)

// TemplateCache keeps parsed query templates keyed by their source text so
// repeated Parse calls on the same text skip the lexer.
type TemplateCache struct {
	mu      sync.Mutex
	entries map[string]*CachedTemplate
	maxSize int
	ttl     time.Duration
	clk     clock.Clock
}

// CachedTemplate is one cache entry.
type CachedTemplate struct {
	Template    *parser.Template
	LastUsed    time.Time
	AccessCount int64
}

func NewTemplateCache(maxSize int, ttl time.Duration, clk clock.Clock) *TemplateCache {
	if clk == nil {
		clk = clock.New()
	}
	return &TemplateCache{
		entries: make(map[string]*CachedTemplate),
		maxSize: maxSize,
		ttl:     ttl,
		clk:     clk,
	}
}

// DefaultTemplateCache holds limits.MaxCachedTemplates templates for five
// minutes each.
func DefaultTemplateCache() *TemplateCache {
	return NewTemplateCache(limits.MaxCachedTemplates, 5*time.Minute, nil)
}

// Get returns the template for text if it is cached and fresh.
func (c *TemplateCache) Get(text string) (*parser.Template, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[text]
	if !ok {
		return nil, false
	}
	now := c.clk.Now()
	if c.ttl > 0 && now.Sub(e.LastUsed) > c.ttl {
		delete(c.entries, text)
		return nil, false
	}
	e.LastUsed = now
	e.AccessCount++
	return e.Template, true
}

// Put stores t under its source text, evicting the least recently used
// entry when full.
func (c *TemplateCache) Put(t *parser.Template) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[t.Source]; !ok && len(c.entries) >= c.maxSize {
		c.evictLRU()
	}
	c.entries[t.Source] = &CachedTemplate{
		Template:    t,
		LastUsed:    c.clk.Now(),
		AccessCount: 1,
	}
}

// Parse returns the cached template for text, parsing and caching it on a
// miss. Invalid templates are not cached.
func (c *TemplateCache) Parse(text string) (*parser.Template, error) {
	if t, ok := c.Get(text); ok {
		return t, nil
	}
	t, err := parser.Parse(text)
	if err != nil {
		return nil, err
	}
	c.Put(t)
	return t, nil
}

func (c *TemplateCache) evictLRU() {
	var oldestKey string
	var oldestTime time.Time
	first := true

	for key, e := range c.entries {
		if first || e.LastUsed.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.LastUsed
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}

// Cleanup drops expired entries.
func (c *TemplateCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clk.Now()
	for key, e := range c.entries {
		if now.Sub(e.LastUsed) > c.ttl {
			delete(c.entries, key)
		}
	}
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (c *TemplateCache) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Cleanup()
			}
		}
	}()
}

// Stats returns the number of entries and the total hits across them.
func (c *TemplateCache) Stats() (size int, totalAccesses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	size = len(c.entries)
	for _, e := range c.entries {
		totalAccesses += e.AccessCount
	}
	return size, totalAccesses
}

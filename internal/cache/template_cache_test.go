package cache

import (
	"context"
	"testing"
	"time"

	"github.com/jmhodges/clock"
)

func TestTemplateCacheHitAndExpiry(t *testing.T) {
	clk := clock.NewFake()
	c := NewTemplateCache(10, time.Minute, clk)

	first, err := c.Parse("select * from %0:table")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	second, _ := c.Parse("select * from %0:table")
	if first != second {
		t.Error("second Parse should come from the cache")
	}
	if size, hits := c.Stats(); size != 1 || hits != 2 {
		t.Errorf("Stats() = %d, %d", size, hits)
	}

	clk.Add(2 * time.Minute)
	if _, ok := c.Get("select * from %0:table"); ok {
		t.Error("entry should have expired")
	}
}

func TestTemplateCacheEvictsLRU(t *testing.T) {
	clk := clock.NewFake()
	c := NewTemplateCache(2, time.Hour, clk)

	c.Parse("select %0")
	clk.Add(time.Second)
	c.Parse("select %1")
	clk.Add(time.Second)
	c.Get("select %0")
	clk.Add(time.Second)
	c.Parse("select %2")

	if _, ok := c.Get("select %1"); ok {
		t.Error("least recently used entry survived")
	}
	if _, ok := c.Get("select %0"); !ok {
		t.Error("recently used entry was evicted")
	}
}

func TestTemplateCacheSkipsInvalid(t *testing.T) {
	c := NewTemplateCache(2, time.Hour, clock.NewFake())
	if _, err := c.Parse("%0:a %1:a"); err == nil {
		t.Fatal("expected a template error")
	}
	if size, _ := c.Stats(); size != 0 {
		t.Errorf("invalid template cached, size %d", size)
	}
}

func TestTemplateCacheCleanup(t *testing.T) {
	clk := clock.NewFake()
	c := NewTemplateCache(5, time.Minute, clk)
	c.Parse("select %0")
	clk.Add(time.Hour)
	c.Cleanup()
	if size, _ := c.Stats(); size != 0 {
		t.Errorf("Cleanup left %d entries", size)
	}
}

func TestStartCleanupDropsExpired(t *testing.T) {
	clk := clock.NewFake()
	c := NewTemplateCache(10, time.Minute, clk)
	c.Parse("select * from %0:table")
	clk.Add(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.StartCleanup(ctx, 5*time.Millisecond)

	deadline := time.Now().Add(5 * time.Second)
	for {
		if size, _ := c.Stats(); size == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("expired entry was never cleaned up")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

package query

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmhodges/clock"
)

// RepeatDetector spots statements that are sent over and over with only
// their literals changing, the usual sign that a template would serve
// better than string building.
type RepeatDetector struct {
	mu         sync.Mutex
	queries    map[string]*QueryInfo
	maxSize    int
	threshold  int
	timeWindow time.Duration
	clk        clock.Clock
}

// QueryInfo tracks one normalized statement shape.
type QueryInfo struct {
	Pattern   string
	Count     int
	FirstSeen time.Time
	LastSeen  time.Time
}

// DefaultMaxQueries bounds how many shapes are tracked at once.
const DefaultMaxQueries = 1000

func NewRepeatDetector(threshold int, timeWindow time.Duration, clk clock.Clock) *RepeatDetector {
	if clk == nil {
		clk = clock.New()
	}
	return &RepeatDetector{
		queries:    make(map[string]*QueryInfo),
		maxSize:    DefaultMaxQueries,
		threshold:  threshold,
		timeWindow: timeWindow,
		clk:        clk,
	}
}

// DefaultRepeatDetector alerts on 5 repeats within one second.
func DefaultRepeatDetector() *RepeatDetector {
	return NewRepeatDetector(5, time.Second, nil)
}

// Record notes a statement. It returns an alert the moment the shape
// reaches the threshold inside the window, and nil otherwise.
func (d *RepeatDetector) Record(sql string) *Alert {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clk.Now()
	pattern := NormalizeQuery(sql)
	info, ok := d.queries[pattern]
	if ok && now.Sub(info.FirstSeen) > d.timeWindow {
		delete(d.queries, pattern)
		ok = false
	}
	if !ok {
		if len(d.queries) >= d.maxSize {
			d.evictOldest()
		}
		info = &QueryInfo{Pattern: pattern, FirstSeen: now}
		d.queries[pattern] = info
	}
	info.Count++
	info.LastSeen = now

	if info.Count == d.threshold {
		return &Alert{Pattern: pattern, Count: info.Count, TimeWindow: now.Sub(info.FirstSeen)}
	}
	return nil
}

// Check returns an alert for every shape at or over the threshold and
// forgets shapes whose window has passed.
func (d *RepeatDetector) Check() []Alert {
	d.mu.Lock()
	defer d.mu.Unlock()

	var alerts []Alert
	now := d.clk.Now()
	for pattern, info := range d.queries {
		if now.Sub(info.FirstSeen) > d.timeWindow {
			delete(d.queries, pattern)
			continue
		}
		if info.Count >= d.threshold {
			alerts = append(alerts, Alert{
				Pattern:    pattern,
				Count:      info.Count,
				TimeWindow: now.Sub(info.FirstSeen),
			})
		}
	}
	return alerts
}

// Alert reports a repeated statement shape.
type Alert struct {
	Pattern    string
	Count      int
	TimeWindow time.Duration
}

func (a Alert) String() string {
	return fmt.Sprintf("statement '%s' sent %d times in %v with only literals changing; consider a parsed template",
		a.Pattern, a.Count, a.TimeWindow)
}

func (d *RepeatDetector) evictOldest() {
	var oldestKey string
	var oldestTime time.Time
	first := true

	for key, info := range d.queries {
		if first || info.FirstSeen.Before(oldestTime) {
			oldestKey = key
			oldestTime = info.FirstSeen
			first = false
		}
	}
	if !first {
		delete(d.queries, oldestKey)
	}
}

const maxPatternLen = 120

// NormalizeQuery replaces string and numeric literals with '?' and
// collapses whitespace, so statements that differ only in their values
// share a pattern.
func NormalizeQuery(sql string) string {
	var b strings.Builder
	space := false
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '\'' || c == '"':
			i = skipQuoted(sql, i)
			b.WriteByte('?')
			space = false
		case c >= '0' && c <= '9' && !prevIdent(sql, i):
			for i+1 < len(sql) && (isDigit(sql[i+1]) || sql[i+1] == '.') {
				i++
			}
			b.WriteByte('?')
			space = false
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			if !space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = true
		default:
			b.WriteByte(c)
			space = false
		}
	}
	out := strings.TrimRight(b.String(), " ")
	if len(out) > maxPatternLen {
		return out[:maxPatternLen] + "..."
	}
	return out
}

// skipQuoted returns the index of the quote closing the literal opened at
// i, honouring backslash escapes and doubled quotes.
func skipQuoted(s string, i int) int {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case q:
			if j+1 < len(s) && s[j+1] == q {
				j++
				continue
			}
			return j
		}
	}
	return len(s) - 1
}

func prevIdent(s string, i int) bool {
	if i == 0 {
		return false
	}
	c := s[i-1]
	return c == '_' || isDigit(c) || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// StartMonitoring calls callback with the current alerts every interval
// until ctx is done.
func (d *RepeatDetector) StartMonitoring(ctx context.Context, interval time.Duration, callback func([]Alert)) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if alerts := d.Check(); len(alerts) > 0 && callback != nil {
					callback(alerts)
				}
			}
		}
	}()
}

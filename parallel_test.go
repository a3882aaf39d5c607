package rpgtl

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// slowCache simulates a slow cache for testing parallel lookups
type slowCache struct {
	data    map[string]string
	mu      sync.RWMutex
	delay   time.Duration
	lookups int64
}

func newSlowCache(delay time.Duration) *slowCache {
	return &slowCache{
		data:  make(map[string]string),
		delay: delay,
	}
}

func (c *slowCache) Get(key string) (string, bool) {
	atomic.AddInt64(&c.lookups, 1)
	time.Sleep(c.delay)
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.data[key]
	return val, ok
}

func (c *slowCache) Set(key string, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func unitsFor(texts ...string) []TextUnit {
	units := make([]TextUnit, len(texts))
	for i, text := range texts {
		units[i] = TextUnit{Path: Path{}.Index(i), Text: text}
	}
	return units
}

func TestParallelCacheLookup_Basic(t *testing.T) {
	cache := newSlowCache(0)
	cache.Set(CacheKey(HashText("Hello there."), "auto", "es"), "Hola.")
	cache.Set(CacheKey(HashText("Big world!"), "auto", "es"), "¡Gran mundo!")

	units := unitsFor("Hello there.", "Big world!", "Missing line.")

	translations, misses := ParallelCacheLookup(cache, units, "auto", "es")

	if len(translations) != 2 {
		t.Errorf("Expected 2 translations, got %d", len(translations))
	}

	if translations[HashText("Hello there.")] != "Hola." {
		t.Errorf("Expected 'Hola.', got %q", translations[HashText("Hello there.")])
	}

	if len(misses) != 1 {
		t.Fatalf("Expected 1 miss, got %d", len(misses))
	}

	if misses[0].Text != "Missing line." {
		t.Errorf("Expected miss 'Missing line.', got %q", misses[0].Text)
	}
}

func TestParallelCacheLookup_Deduplication(t *testing.T) {
	cache := newSlowCache(0)

	// Same text appears multiple times
	units := unitsFor("Hello there.", " Hello there.", "Hello there.")

	_, misses := ParallelCacheLookup(cache, units, "auto", "es")

	// Should only have one miss (deduplicated)
	if len(misses) != 1 {
		t.Errorf("Expected 1 deduplicated miss, got %d", len(misses))
	}
	if cache.lookups != 1 {
		t.Errorf("Expected 1 lookup, got %d", cache.lookups)
	}
}

func TestParallelCacheLookup_NilCache(t *testing.T) {
	units := unitsFor("Hello there.")

	translations, misses := ParallelCacheLookup(nil, units, "auto", "es")

	if len(translations) != 0 {
		t.Errorf("Expected 0 translations with nil cache, got %d", len(translations))
	}

	if len(misses) != 1 {
		t.Errorf("Expected all units as misses with nil cache, got %d", len(misses))
	}
}

func TestParallelCacheLookup_EmptyUnits(t *testing.T) {
	cache := newSlowCache(0)
	translations, misses := ParallelCacheLookup(cache, []TextUnit{}, "auto", "es")

	if len(translations) != 0 {
		t.Errorf("Expected 0 translations for empty units, got %d", len(translations))
	}

	if len(misses) != 0 {
		t.Errorf("Expected 0 misses for empty units, got %d", len(misses))
	}
}

func TestParallelCacheLookup_MissOrder(t *testing.T) {
	cache := newSlowCache(0)
	cache.Set(CacheKey(HashText("b b"), "en", "ja"), "hit")

	_, misses := ParallelCacheLookup(cache, unitsFor("a a", "b b", "c c", "a a", "d d"), "en", "ja")

	var got []string
	for _, m := range misses {
		got = append(got, m.Text)
	}
	want := []string{"a a", "c c", "d d"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("misses = %v, want %v", got, want)
	}
}

func TestParallelCacheLookup_FasterThanSequential(t *testing.T) {
	delay := 10 * time.Millisecond
	cache := newSlowCache(delay)

	texts := make([]string, 10)
	for i := range texts {
		texts[i] = fmt.Sprintf("line %d", i)
		cache.Set(CacheKey(HashText(texts[i]), "auto", "es"), "translated")
	}

	start := time.Now()
	ParallelCacheLookup(cache, unitsFor(texts...), "auto", "es")
	elapsed := time.Since(start)

	// Sequential would take 10 * 10ms = 100ms
	// Parallel should be much faster (close to 10ms + overhead)
	maxExpected := 50 * time.Millisecond
	if elapsed > maxExpected {
		t.Errorf("Parallel lookup took %v, expected < %v", elapsed, maxExpected)
	}
}

func BenchmarkParallelCacheLookup(b *testing.B) {
	cache := newSlowCache(0)
	texts := make([]string, 100)
	for i := range texts {
		texts[i] = fmt.Sprintf("line %d", i)
		cache.Set(CacheKey(HashText(texts[i]), "auto", "es"), "translated")
	}
	units := unitsFor(texts...)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParallelCacheLookup(cache, units, "auto", "es")
	}
}

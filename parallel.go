package rpgtl

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// maxParallelLookups bounds concurrent cache reads for one document.
const maxParallelLookups = 32

// ParallelCacheLookup performs cache lookups in parallel using goroutines.
// Returns a map of text hash to cached value, and the units that missed,
// deduplicated by hash in document order.
func ParallelCacheLookup(cache TranslationCache, units []TextUnit, sourceLang, targetLang string) (map[string]string, []TextUnit) {
	translations := make(map[string]string)
	if len(units) == 0 {
		return translations, nil
	}

	// Deduplicate units by hash first, keeping the first occurrence
	var unique []TextUnit
	hashes := make([]string, 0, len(units))
	seen := make(map[string]bool)
	for _, unit := range units {
		h := unit.Hash()
		if !seen[h] {
			seen[h] = true
			unique = append(unique, unit)
			hashes = append(hashes, h)
		}
	}

	if cache == nil {
		return translations, unique
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(maxParallelLookups)
	for _, h := range hashes {
		g.Go(func() error {
			if val, ok := cache.Get(CacheKey(h, sourceLang, targetLang)); ok {
				mu.Lock()
				translations[h] = val
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait() // lookups never fail; a broken cache reads as a miss

	// Build cache misses slice (preserving original order)
	var misses []TextUnit
	for i, unit := range unique {
		if _, ok := translations[hashes[i]]; !ok {
			misses = append(misses, unit)
		}
	}

	return translations, misses
}

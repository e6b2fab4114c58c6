package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// CollisionResolver tracks output paths claimed by source files and resolves
// duplicates by appending " - dupN" suffixes. Paths are compared
// case-insensitively so "A.webp" and "a.webp" collide on every filesystem.
// All methods are goroutine-safe.
type CollisionResolver struct {
	mu       sync.Mutex
	owners   map[string]string // folded output path → source that owns it
	counters map[string]int    // folded requested path → next dup counter
}

// NewCollisionResolver creates a ready-to-use resolver.
func NewCollisionResolver() *CollisionResolver {
	return &CollisionResolver{
		owners:   make(map[string]string),
		counters: make(map[string]int),
	}
}

// Resolve returns the final output path for src. If requested is unclaimed
// (or already owned by src) it is returned as-is; otherwise the first free
// "<stem> - dupN<ext>" variant is claimed and returned.
func (cr *CollisionResolver) Resolve(src, requested string) string {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.claim(src, requested) {
		return requested
	}

	dir := filepath.Dir(requested)
	base := filepath.Base(requested)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	key := fold(requested)
	counter := cr.counters[key]
	if counter == 0 {
		counter = 1
	}
	for {
		candidate := filepath.Join(dir, fmt.Sprintf("%s - dup%d%s", stem, counter, ext))
		if cr.claim(src, candidate) {
			cr.counters[key] = counter + 1
			return candidate
		}
		counter++
	}
}

func (cr *CollisionResolver) claim(src, path string) bool {
	k := fold(path)
	owner, exists := cr.owners[k]
	if exists && owner != src {
		return false
	}
	cr.owners[k] = src
	return true
}

func fold(path string) string { return strings.ToLower(filepath.Clean(path)) }

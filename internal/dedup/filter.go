package dedup

import "sync"

// Filter is a concurrent first-wins set of candidate fingerprints. The
// fingerprint is the exact share-link text, so two links differing only in
// their fragment name are distinct entries.
type Filter struct {
	seen map[string]struct{}
	mu   sync.RWMutex
}

func New() *Filter {
	return &Filter{
		seen: make(map[string]struct{}),
	}
}

// Seen records the fingerprint and reports whether it was already present.
// Callers keep their own ordered slice; appending only when Seen returns
// false preserves first-seen order across sources.
func (f *Filter) Seen(fingerprint string) bool {
	f.mu.RLock()
	_, exists := f.seen[fingerprint]
	f.mu.RUnlock()

	if exists {
		return true
	}

	f.mu.Lock()
	f.seen[fingerprint] = struct{}{}
	f.mu.Unlock()

	return false
}

// Len reports how many distinct fingerprints have been recorded.
func (f *Filter) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.seen)
}

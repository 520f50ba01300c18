package ledger

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Deduplicator remembers recently processed reaction events so a redelivered
// event is not applied twice. A nil Deduplicator never reports duplicates.
type Deduplicator struct {
	mu   sync.Mutex
	seen *expirable.LRU[string, struct{}]
}

// NewDeduplicator remembers up to size keys for ttl each.
func NewDeduplicator(size int, ttl time.Duration) *Deduplicator {
	if size <= 0 {
		size = 10000
	}
	return &Deduplicator{seen: expirable.NewLRU[string, struct{}](size, nil, ttl)}
}

// Claim marks key as in flight. It returns false when key was already claimed.
func (d *Deduplicator) Claim(key string) bool {
	if d == nil {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen.Contains(key) {
		return false
	}
	d.seen.Add(key, struct{}{})
	return true
}

// Release forgets key so the same event can be processed again.
func (d *Deduplicator) Release(key string) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen.Remove(key)
}

// Len returns the number of remembered keys.
func (d *Deduplicator) Len() int {
	if d == nil {
		return 0
	}
	return d.seen.Len()
}

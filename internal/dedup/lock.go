// Package dedup provides the in-process, time-bounded mutual exclusion used
// to keep the push and poll paths from processing the same video
// concurrently. It is advisory and single-process only, not a distributed
// lock.
package dedup

import (
	"sync"
	"time"
)

// DefaultTTL bounds how long an entry stays held without an explicit
// Delete. The expiry is a safety net against a crashed holder.
const DefaultTTL = 60 * time.Second

// Lock is a TTL-bounded exclusion map keyed by video ID. The zero value is
// not usable; construct with New.
type Lock struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]time.Time
}

// New creates a Lock with the given TTL. A non-positive ttl falls back to
// DefaultTTL.
func New(ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Lock{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]time.Time),
	}
}

// TryAcquire atomically checks and takes the lock for key. It returns false
// when another holder still owns an unexpired entry.
func (l *Lock) TryAcquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if expires, ok := l.entries[key]; ok && expires.After(now) {
		return false
	}
	l.entries[key] = now.Add(l.ttl)
	return true
}

// Has reports whether key is currently held.
func (l *Lock) Has(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	expires, ok := l.entries[key]
	if !ok {
		return false
	}
	if !expires.After(l.now()) {
		delete(l.entries, key)
		return false
	}
	return true
}

// Add takes the lock for key unconditionally, refreshing the TTL.
func (l *Lock) Add(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[key] = l.now().Add(l.ttl)
}

// Delete releases the lock for key. Callers must release on every exit path.
func (l *Lock) Delete(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

// Sweep drops expired entries. Expiry is also checked lazily on reads, so
// calling Sweep is an optimization, not a correctness requirement.
func (l *Lock) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, expires := range l.entries {
		if !expires.After(now) {
			delete(l.entries, key)
		}
	}
}

package dedup

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLock_TryAcquire(t *testing.T) {
	t.Parallel()

	lock := New(time.Minute)

	assert.True(t, lock.TryAcquire("v1"))
	assert.False(t, lock.TryAcquire("v1"))
	assert.True(t, lock.TryAcquire("v2"))

	lock.Delete("v1")
	assert.True(t, lock.TryAcquire("v1"))
}

func TestLock_EntriesExpire(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	lock := New(time.Minute)
	lock.now = func() time.Time { return now }

	assert.True(t, lock.TryAcquire("v1"))
	assert.True(t, lock.Has("v1"))

	now = now.Add(59 * time.Second)
	assert.False(t, lock.TryAcquire("v1"))

	now = now.Add(2 * time.Second)
	assert.False(t, lock.Has("v1"))
	assert.True(t, lock.TryAcquire("v1"))
}

func TestLock_AddRefreshesTTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	lock := New(time.Minute)
	lock.now = func() time.Time { return now }

	lock.Add("v1")
	now = now.Add(45 * time.Second)
	lock.Add("v1")
	now = now.Add(45 * time.Second)

	assert.True(t, lock.Has("v1"))
}

func TestLock_Sweep(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	lock := New(time.Minute)
	lock.now = func() time.Time { return now }

	lock.Add("old")
	now = now.Add(2 * time.Minute)
	lock.Add("fresh")

	lock.Sweep()

	lock.mu.Lock()
	defer lock.mu.Unlock()
	assert.NotContains(t, lock.entries, "old")
	assert.Contains(t, lock.entries, "fresh")
}

func TestLock_ConcurrentAcquireIsExclusive(t *testing.T) {
	t.Parallel()

	lock := New(time.Minute)

	var wg sync.WaitGroup
	acquired := make(chan bool, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acquired <- lock.TryAcquire("v1")
		}()
	}
	wg.Wait()
	close(acquired)

	wins := 0
	for ok := range acquired {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
}

func TestNew_NonPositiveTTLUsesDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultTTL, New(0).ttl)
	assert.Equal(t, DefaultTTL, New(-time.Second).ttl)
}

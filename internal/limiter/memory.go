package limiter

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local CounterStore. Each key owns its window
// and its lock; the key lookup goes through sync.Map so two keys never
// contend on the same mutex.
type MemoryStore struct {
	windows      sync.Map // string -> *memoryWindow
	now          func() time.Time
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type memoryWindow struct {
	mu      sync.Mutex
	start   time.Time
	count   int64
	touched time.Time
}

const memoryCleanupInterval = 5 * time.Minute

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go s.startCleanup()
	return s
}

// Incr implements CounterStore. The check-and-reset plus increment happen
// under the window's own lock, so concurrent callers for the same key
// serialize and every caller observes an exact count.
func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	v, _ := s.windows.LoadOrStore(key, &memoryWindow{})
	w := v.(*memoryWindow)

	w.mu.Lock()
	defer w.mu.Unlock()

	now := s.now()
	if w.start.IsZero() || now.Sub(w.start) >= window {
		w.start = now
		w.count = 0
	}
	w.count++
	w.touched = now

	return w.count, nil
}

// startCleanup drops windows that have been idle for a while so the map
// does not grow with one entry per client forever.
func (s *MemoryStore) startCleanup() {
	ticker := time.NewTicker(memoryCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanupStaleEntries(10 * time.Minute)
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryStore) cleanupStaleEntries(idleTTL time.Duration) {
	cutoff := s.now().Add(-idleTTL)
	s.windows.Range(func(key, v any) bool {
		w := v.(*memoryWindow)
		w.mu.Lock()
		stale := w.touched.Before(cutoff)
		w.mu.Unlock()
		if stale {
			s.windows.Delete(key)
		}
		return true
	})
}

// Stop shuts down the cleanup goroutine.
func (s *MemoryStore) Stop() {
	s.shutdownOnce.Do(func() {
		close(s.stopCleanup)
	})
}

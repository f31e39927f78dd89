package limiter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type erroringStore struct {
	err   error
	calls int
}

func (s *erroringStore) Incr(context.Context, string, time.Duration) (int64, error) {
	s.calls++
	return 0, s.err
}

func TestAllow_LimitWithinWindow(t *testing.T) {
	store := NewMemoryStore()
	defer store.Stop()

	l := New(store, 2, 60*time.Second, false, zap.NewNop())
	ctx := context.Background()

	allowed, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed, "first request should be admitted")

	allowed, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed, "second request should be admitted")

	allowed, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, allowed, "third request in the same window should be denied")
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	store := NewMemoryStore()
	defer store.Stop()

	l := New(store, 1, 60*time.Second, false, zap.NewNop())
	ctx := context.Background()

	allowed, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, allowed, "k is over budget")

	allowed, err = l.Allow(ctx, "other-key")
	require.NoError(t, err)
	assert.True(t, allowed, "other-key has its own budget")
}

func TestAllow_WindowElapsedResets(t *testing.T) {
	store := NewMemoryStore()
	defer store.Stop()

	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	l := New(store, 1, 60*time.Second, false, zap.NewNop())
	ctx := context.Background()

	allowed, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	require.False(t, allowed)

	now = now.Add(61 * time.Second)

	allowed, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed, "a fresh window starts after the old one elapses")
}

func TestAllow_ConcurrentAdmitsAtMostLimit(t *testing.T) {
	store := NewMemoryStore()
	defer store.Stop()

	const (
		limit   = 10
		callers = 50
	)

	l := New(store, limit, 60*time.Second, false, zap.NewNop())
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, err := l.Allow(ctx, "k")
			assert.NoError(t, err)
			if allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, admitted, "a fresh window admits exactly the limit")
}

func TestAllow_FailClosed(t *testing.T) {
	store := &erroringStore{err: errors.New("connection refused")}

	l := New(store, 100, 60*time.Second, false, zap.NewNop())

	allowed, err := l.Allow(context.Background(), "k")
	assert.False(t, allowed)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAllow_FailOpen(t *testing.T) {
	store := &erroringStore{err: errors.New("connection refused")}

	l := New(store, 100, 60*time.Second, true, zap.NewNop())

	allowed, err := l.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, allowed, "fail-open admits when the counter store is down")
}

func TestNew_DefaultsAppliedForZeroConfig(t *testing.T) {
	store := NewMemoryStore()
	defer store.Stop()

	l := New(store, 0, 0, false, zap.NewNop())

	assert.Equal(t, int64(100), l.limit)
	assert.Equal(t, time.Minute, l.window)
}

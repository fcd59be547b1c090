package pricing

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when Sleep is called.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestGate_FirstCallDoesNotWait(t *testing.T) {
	clock := newFakeClock()
	g := NewGate(time.Second, clock)

	ran := false
	require.NoError(t, g.Do(context.Background(), func() error { ran = true; return nil }))
	assert.True(t, ran)
	assert.Empty(t, clock.sleeps)
}

func TestGate_WaitsRemainingInterval(t *testing.T) {
	clock := newFakeClock()
	g := NewGate(1200*time.Millisecond, clock)
	ctx := context.Background()

	require.NoError(t, g.Do(ctx, func() error { return nil }))
	clock.Advance(200 * time.Millisecond)
	require.NoError(t, g.Do(ctx, func() error { return nil }))

	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, time.Second, clock.sleeps[0])

	// A call after the interval has already elapsed does not sleep.
	clock.Advance(5 * time.Second)
	require.NoError(t, g.Do(ctx, func() error { return nil }))
	assert.Len(t, clock.sleeps, 1)
}

func TestGate_ConcurrentCallersNeverCloserThanInterval(t *testing.T) {
	clock := newFakeClock()
	interval := 1200 * time.Millisecond
	g := NewGate(interval, clock)

	var (
		mu     sync.Mutex
		starts []time.Time
		wg     sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := g.Do(context.Background(), func() error {
				mu.Lock()
				starts = append(starts, clock.Now())
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, starts, 50)
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	for i := 1; i < len(starts); i++ {
		assert.GreaterOrEqual(t, starts[i].Sub(starts[i-1]), interval)
	}
}

func TestGate_CancelledWaitSkipsCall(t *testing.T) {
	clock := newFakeClock()
	g := NewGate(time.Second, clock)
	require.NoError(t, g.Do(context.Background(), func() error { return nil }))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	err := g.Do(ctx, func() error { ran = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
}

func TestGate_SystemClock(t *testing.T) {
	g := NewGate(30*time.Millisecond, SystemClock())
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, g.Do(ctx, func() error { return nil }))
	require.NoError(t, g.Do(ctx, func() error { return nil }))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

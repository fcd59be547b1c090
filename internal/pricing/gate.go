package pricing

import (
	"context"
	"sync"
	"time"

	"solana-alerts/internal/observability"
)

// DefaultMinInterval is the minimum spacing between outbound price lookups.
const DefaultMinInterval = 1200 * time.Millisecond

// Clock abstracts time for the gate.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// Gate serialises calls process-wide and spaces their starts at least
// interval apart. Callers block; there is no queue.
type Gate struct {
	mu       sync.Mutex
	interval time.Duration
	clock    Clock
	last     time.Time
}

// NewGate creates a gate. A nil clock uses the wall clock.
func NewGate(interval time.Duration, clock Clock) *Gate {
	if clock == nil {
		clock = systemClock{}
	}
	if interval < 0 {
		interval = 0
	}
	return &Gate{interval: interval, clock: clock}
}

// Interval returns the configured minimum spacing.
func (g *Gate) Interval() time.Duration {
	return g.interval
}

// Do waits until interval has passed since the previous admitted call, then
// runs fn while still holding the gate. If ctx ends during the wait fn is not
// run and the previous timestamp is kept.
func (g *Gate) Do(ctx context.Context, fn func() error) error {
	start := g.clock.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.last.IsZero() {
		if wait := g.interval - g.clock.Now().Sub(g.last); wait > 0 {
			if err := g.clock.Sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	g.last = g.clock.Now()
	observability.RecordGateWait(g.last.Sub(start).Seconds())

	return fn()
}

package browser

import (
	"context"
	"math/rand/v2"
	"time"
)

// Pacer sleeps for a random duration in [Min, Max].
type Pacer struct {
	Min time.Duration
	Max time.Duration
}

// Next returns the next pause length.
func (p Pacer) Next() time.Duration {
	if p.Max <= p.Min {
		return p.Min
	}
	return p.Min + time.Duration(rand.Int64N(int64(p.Max-p.Min)+1))
}

// Pause blocks for Next() or until ctx is done.
func (p Pacer) Pause(ctx context.Context) error {
	return Pause(ctx, p.Next())
}

// Pause blocks for d or until ctx is done.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

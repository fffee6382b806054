package usecase

import (
	"context"
	"math/rand/v2"
	"time"
)

// Delay is the simulated processing latency applied before a result is
// returned. The zero value does not wait.
type Delay struct {
	Base   time.Duration
	Jitter time.Duration
}

func (d Delay) duration() time.Duration {
	if d.Jitter <= 0 {
		return d.Base
	}
	return d.Base + rand.N(d.Jitter)
}

// Wait blocks for the delay or until ctx is done.
func (d Delay) Wait(ctx context.Context) error {
	dur := d.duration()
	if dur <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package colony

import (
	"context"
	"time"
)

// Pacer wraps a colony's Run with wall-clock pacing for live
// observation. It changes nothing about simulation semantics, only
// the spacing between ticks.
type Pacer struct {
	Colony   *Colony
	Interval time.Duration
}

// Run advances n ticks, sleeping Interval between consecutive ticks.
// Cancelling the context stops between ticks, like Colony.Run.
func (p *Pacer) Run(ctx context.Context, n uint64) error {
	if p.Interval <= 0 {
		return p.Colony.Run(ctx, n)
	}
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	for i := uint64(0); i < n; i++ {
		if err := p.Colony.Run(ctx, 1); err != nil {
			return err
		}
		if i == n-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

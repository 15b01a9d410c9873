package dispatch

import (
	"context"
	"time"
)

// gate is the single-flight admission control: one generation holds all
// accelerator memory, so concurrent requests wait briefly and then bounce.
type gate struct {
	slot chan struct{}
}

func newGate() gate {
	g := gate{slot: make(chan struct{}, 1)}
	g.slot <- struct{}{}
	return g
}

// acquire claims the slot, waiting up to maxWait. A zero maxWait means
// fail immediately when busy.
func (g gate) acquire(ctx context.Context, maxWait time.Duration) error {
	select {
	case <-g.slot:
		return nil
	default:
	}
	if maxWait <= 0 {
		return busyError{}
	}
	t := time.NewTimer(maxWait)
	defer t.Stop()
	select {
	case <-g.slot:
		return nil
	case <-t.C:
		return busyError{}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g gate) release() { g.slot <- struct{}{} }

// busy reports whether the slot is currently held. It only reads the
// channel length so a status poll never races an acquire for the slot.
func (g gate) busy() bool {
	return len(g.slot) == 0
}

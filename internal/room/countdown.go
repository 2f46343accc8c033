package room

import (
	"context"
	"time"
)

// TickerFunc starts a periodic ticker. The returned func stops it.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func NewTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

type countdown struct {
	gen  int
	stop context.CancelFunc
}

func (r *Room) countdownActive() bool { return r.cd.stop != nil }

// startCountdown replaces any running ticker. Each tick is posted to the inbox
// tagged with the current generation.
func (r *Room) startCountdown() {
	r.stopCountdown()

	gen := r.cd.gen
	ctx, cancel := context.WithCancel(r.ctx)
	r.cd.stop = cancel
	ticks, stopTicker := r.deps.Ticker(r.deps.TickInterval)

	go func() {
		defer stopTicker()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticks:
				select {
				case r.inbox <- countdownTick{gen: gen}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
}

// stopCountdown bumps the generation so ticks already queued are ignored.
func (r *Room) stopCountdown() {
	if r.cd.stop != nil {
		r.cd.stop()
		r.cd.stop = nil
	}
	r.cd.gen++
}

package pomodoro

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Ticker drives a Keeper countdown from a clock.
type Ticker struct {
	keeper   *Keeper
	clock    clockwork.Clock
	interval time.Duration
}

// NewTicker creates a Ticker. A nil clock uses the real clock and a
// non-positive interval defaults to one second.
func NewTicker(keeper *Keeper, clock clockwork.Clock, interval time.Duration) *Ticker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Ticker{keeper: keeper, clock: clock, interval: interval}
}

// Run ticks until ctx is cancelled. The keeper advances on its own when a
// phase runs out.
func (ticker *Ticker) Run(ctx context.Context) {
	clockTicker := ticker.clock.NewTicker(ticker.interval)
	defer clockTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-clockTicker.Chan():
			if !ticker.keeper.Tick() {
				continue
			}
			state := ticker.keeper.Snapshot()
			log.Debug().
				Str("mode", string(state.Mode)).
				Int("session", state.SessionIndex).
				Bool("complete", state.IsComplete).
				Msg("phase expired")
		}
	}
}

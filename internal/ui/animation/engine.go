package animation

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Engine drives a pulse on a single target.
type Engine struct {
	mu     sync.Mutex
	config Config
	clock  clockwork.Clock
	apply  func(alpha uint8)
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a pulse engine. A nil clock uses the real clock.
func New(config Config, clock clockwork.Clock, apply func(alpha uint8)) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{
		config: config,
		clock:  clock,
		apply:  apply,
	}
}

// Start (re)starts the pulse from full brightness.
func (engine *Engine) Start(ctx context.Context) {
	engine.start(ctx, engine.run)
}

// Stop terminates the pulse and restores full brightness.
func (engine *Engine) Stop() {
	engine.mu.Lock()
	cancel, done := engine.cancel, engine.done
	engine.cancel = nil
	engine.done = nil
	engine.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	engine.apply(engine.config.MaxAlpha)
}

// Running reports whether a pulse is active.
func (engine *Engine) Running() bool {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.cancel != nil
}

func (engine *Engine) start(parent context.Context, run func(context.Context)) {
	engine.Stop()

	runCtx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	engine.mu.Lock()
	engine.cancel = cancel
	engine.done = done
	engine.mu.Unlock()

	go func() {
		defer close(done)
		run(runCtx)
	}()
}

func (engine *Engine) run(ctx context.Context) {
	frameDuration := engine.config.FrameDuration()
	// Frame 0 is full brightness, which is what the target shows already.
	for frame := 1; ; frame++ {
		if !sleepWithContext(ctx, engine.clock, frameDuration) {
			return
		}
		engine.apply(engine.config.AlphaAt(frame))
	}
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, duration time.Duration) bool {
	timer := clock.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

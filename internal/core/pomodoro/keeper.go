package pomodoro

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"pomodoro/internal/core/model"

	"github.com/rs/zerolog/log"
)

// ErrUnknownBreak is the panic value cause when StartBreak receives a mode
// that is not a break.
var ErrUnknownBreak = errors.New("unimplemented break type")

// Keeper is the session/break state machine behind the widget controls.
type Keeper struct {
	mu       sync.Mutex
	settings model.Settings
	state    model.TimerState
	events   []chan Event
	closed   bool
}

// New creates a Keeper on the first session with a full duration, running.
func New(settings model.Settings) *Keeper {
	if settings.NumSessions < 1 {
		settings.NumSessions = 1
	}
	keeper := &Keeper{
		settings: settings,
		state: model.TimerState{
			Mode:          model.ModeSession,
			TotalSessions: settings.NumSessions,
			TimeLeftSec:   settings.SessionSeconds,
		},
	}
	return keeper
}

// Subscribe registers a new observer channel. Slow observers miss events
// rather than block transitions.
func (keeper *Keeper) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		close(ch)
		return ch
	}
	keeper.events = append(keeper.events, ch)
	return ch
}

// Close closes every observer channel.
func (keeper *Keeper) Close() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.closed {
		return
	}
	keeper.closed = true
	for _, ch := range keeper.events {
		close(ch)
	}
	keeper.events = nil
}

// Snapshot returns a copy of the current state.
func (keeper *Keeper) Snapshot() model.TimerState {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.state
}

// Settings returns the settings currently in effect.
func (keeper *Keeper) Settings() model.Settings {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.settings
}

// StartSession begins session n with its full duration. Negative n is
// clamped to zero.
func (keeper *Keeper) StartSession(n int) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.startSessionLocked(n)
	keeper.emitLocked(EventPhaseChange)
}

// StartBreak begins the given break after session n. It panics when mode is
// not a break, since callers only ever pass the two break modes.
func (keeper *Keeper) StartBreak(n int, mode model.TimerMode) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.startBreakLocked(n, mode)
	keeper.emitLocked(EventPhaseChange)
}

// EndLongBreak zeroes the long break and marks the cycle complete.
func (keeper *Keeper) EndLongBreak() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.endLongBreakLocked()
	keeper.emitLocked(EventComplete)
}

// ResetCurrent restarts the active phase with its full duration.
func (keeper *Keeper) ResetCurrent() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.resetCurrentLocked()
	keeper.emitLocked(EventPhaseChange)
}

// TogglePause flips the paused flag.
func (keeper *Keeper) TogglePause() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.state.IsPaused = !keeper.state.IsPaused
	keeper.emitLocked(EventPause)
}

// Advance moves to the next phase. The break after the last session is the
// long break; advancing a long break completes the cycle.
func (keeper *Keeper) Advance() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if eventType, ok := keeper.advanceLocked(); ok {
		keeper.emitLocked(eventType)
	}
}

// Retreat steps backwards. A click in the middle of a phase restarts it; a
// click right at the start of a phase steps back one more phase.
func (keeper *Keeper) Retreat() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	state := keeper.state
	full, _ := keeper.settings.PhaseSeconds(state.Mode)
	atStart := state.TimeLeftSec == full

	switch {
	case state.Mode == model.ModeSession && state.SessionIndex == 0:
		keeper.resetCurrentLocked()
	case state.Mode.IsBreak() && atStart:
		keeper.startSessionLocked(state.SessionIndex)
	case state.Mode == model.ModeSession && atStart:
		// Stepping back from a session always lands on a short break.
		keeper.startBreakLocked(state.SessionIndex-1, model.ModeShortBreak)
	default:
		keeper.resetCurrentLocked()
	}
	keeper.emitLocked(EventPhaseChange)
}

// Reset returns to the first session and resumes the timer.
func (keeper *Keeper) Reset() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.startSessionLocked(0)
	keeper.state.IsPaused = false
	keeper.emitLocked(EventPhaseChange)
}

// Tick removes one second from a running phase. When the phase runs out
// the Keeper moves to the next phase in the same step, so no other operation
// ever observes an expired phase, and Tick reports true.
func (keeper *Keeper) Tick() bool {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if keeper.state.IsPaused || keeper.state.TimeLeftSec <= 0 {
		return false
	}
	keeper.state.TimeLeftSec--
	if keeper.state.TimeLeftSec > 0 {
		keeper.emitLocked(EventProgress)
		return false
	}

	expired := keeper.state.Mode
	if _, ok := keeper.advanceLocked(); !ok {
		keeper.emitLocked(EventProgress)
		return false
	}
	keeper.emitExpiredLocked(expired)
	return true
}

// ApplySettings replaces the settings used for future phases. The running
// countdown is left alone.
func (keeper *Keeper) ApplySettings(settings model.Settings) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if settings.NumSessions < 1 {
		settings.NumSessions = 1
	}
	keeper.settings = settings
	keeper.state.TotalSessions = settings.NumSessions
	if keeper.state.SessionIndex > settings.NumSessions-1 {
		keeper.state.SessionIndex = settings.NumSessions - 1
	}
	keeper.emitLocked(EventSettings)
}

// SetTimeLeft overwrites the remaining seconds of the current phase.
func (keeper *Keeper) SetTimeLeft(seconds int) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	keeper.state.TimeLeftSec = seconds
	keeper.emitLocked(EventProgress)
}

// SetPaused sets the paused flag.
func (keeper *Keeper) SetPaused(paused bool) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.state.IsPaused = paused
	keeper.emitLocked(EventPause)
}

func (keeper *Keeper) advanceLocked() (EventType, bool) {
	switch keeper.state.Mode {
	case model.ModeSession:
		next := model.ModeShortBreak
		if keeper.state.IsLastSession() {
			next = model.ModeLongBreak
		}
		keeper.startBreakLocked(keeper.state.SessionIndex, next)
		return EventPhaseChange, true
	case model.ModeShortBreak:
		keeper.startSessionLocked(keeper.state.SessionIndex + 1)
		return EventPhaseChange, true
	case model.ModeLongBreak:
		keeper.endLongBreakLocked()
		return EventComplete, true
	default:
		log.Error().Str("mode", string(keeper.state.Mode)).Msg("unhandled advance state")
		return "", false
	}
}

// clampIndex keeps n within [0, TotalSessions-1].
func (keeper *Keeper) clampIndex(n int) int {
	return min(max(n, 0), keeper.state.TotalSessions-1)
}

func (keeper *Keeper) startSessionLocked(n int) {
	keeper.state.IsComplete = false
	keeper.state.Mode = model.ModeSession
	keeper.state.SessionIndex = keeper.clampIndex(n)
	keeper.state.TimeLeftSec = keeper.settings.SessionSeconds
}

func (keeper *Keeper) startBreakLocked(n int, mode model.TimerMode) {
	if !mode.IsBreak() {
		panic(fmt.Errorf("start break %q: %w", mode, ErrUnknownBreak))
	}
	seconds, _ := keeper.settings.PhaseSeconds(mode)
	keeper.state.IsComplete = false
	keeper.state.Mode = mode
	keeper.state.SessionIndex = keeper.clampIndex(n)
	keeper.state.TimeLeftSec = seconds
}

func (keeper *Keeper) endLongBreakLocked() {
	keeper.state.TimeLeftSec = 0
	keeper.state.IsComplete = true
}

func (keeper *Keeper) resetCurrentLocked() {
	switch keeper.state.Mode {
	case model.ModeSession:
		keeper.startSessionLocked(keeper.state.SessionIndex)
	case model.ModeShortBreak, model.ModeLongBreak:
		keeper.startBreakLocked(keeper.state.SessionIndex, keeper.state.Mode)
	}
	keeper.state.IsComplete = false
}

func (keeper *Keeper) emitLocked(eventType EventType) {
	keeper.sendLocked(Event{
		Type:     eventType,
		State:    keeper.state,
		Settings: keeper.settings,
		At:       time.Now(),
	})
}

func (keeper *Keeper) emitExpiredLocked(expired model.TimerMode) {
	keeper.sendLocked(Event{
		Type:     EventExpired,
		State:    keeper.state,
		Settings: keeper.settings,
		Expired:  expired,
		At:       time.Now(),
	})
}

func (keeper *Keeper) sendLocked(event Event) {
	for _, ch := range keeper.events {
		select {
		case ch <- event:
		default:
		}
	}
}

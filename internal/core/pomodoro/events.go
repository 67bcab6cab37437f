package pomodoro

import (
	"time"

	"pomodoro/internal/core/model"
)

// EventType defines the type of Keeper event.
type EventType string

const (
	EventPhaseChange EventType = "phase_change"
	EventProgress    EventType = "progress"
	EventPause       EventType = "pause"
	EventExpired     EventType = "expired"
	EventComplete    EventType = "complete"
	EventSettings    EventType = "settings"
)

// Event carries a state snapshot to observers. For EventExpired, State is
// the phase that followed and Expired names the phase that ran out.
type Event struct {
	Type     EventType
	State    model.TimerState
	Settings model.Settings
	Expired  model.TimerMode
	At       time.Time
}

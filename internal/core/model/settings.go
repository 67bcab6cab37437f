package model

import "fmt"

// TimerMode identifies the active phase of the pomodoro cycle.
type TimerMode string

const (
	ModeSession    TimerMode = "session"
	ModeShortBreak TimerMode = "short-break"
	ModeLongBreak  TimerMode = "long-break"
)

// IsBreak reports whether the mode is one of the break phases.
func (mode TimerMode) IsBreak() bool {
	return mode == ModeShortBreak || mode == ModeLongBreak
}

// Default values used when settings are missing or invalid.
const (
	DefaultNumSessions       = 4
	DefaultSessionSeconds    = 25 * 60
	DefaultShortBreakSeconds = 5 * 60
	DefaultLongBreakSeconds  = 15 * 60
	DefaultColorA            = "#f97316"
	DefaultColorB            = "#7c3aed"
)

// Settings holds the validated timer configuration.
type Settings struct {
	NumSessions       int    `json:"numSessions"`
	SessionSeconds    int    `json:"sessionSeconds"`
	ShortBreakSeconds int    `json:"shortBreakSeconds"`
	LongBreakSeconds  int    `json:"longBreakSeconds"`
	AudioEnabled      bool   `json:"audioEnabled"`
	ColorA            string `json:"colorA"`
	ColorB            string `json:"colorB"`
	DevMode           bool   `json:"devMode"`
}

// DefaultSettings returns the settings used before any source has answered.
func DefaultSettings() Settings {
	return Settings{
		NumSessions:       DefaultNumSessions,
		SessionSeconds:    DefaultSessionSeconds,
		ShortBreakSeconds: DefaultShortBreakSeconds,
		LongBreakSeconds:  DefaultLongBreakSeconds,
		AudioEnabled:      true,
		ColorA:            DefaultColorA,
		ColorB:            DefaultColorB,
		DevMode:           false,
	}
}

// PhaseSeconds returns the configured full duration of a phase.
func (settings Settings) PhaseSeconds(mode TimerMode) (int, bool) {
	switch mode {
	case ModeSession:
		return settings.SessionSeconds, true
	case ModeShortBreak:
		return settings.ShortBreakSeconds, true
	case ModeLongBreak:
		return settings.LongBreakSeconds, true
	default:
		return 0, false
	}
}

// TimerState is a snapshot of the pomodoro state machine.
type TimerState struct {
	Mode          TimerMode `json:"mode"`
	SessionIndex  int       `json:"sessionIndex"`
	TotalSessions int       `json:"totalSessions"`
	TimeLeftSec   int       `json:"timeLeftSec"`
	IsPaused      bool      `json:"isPaused"`
	IsComplete    bool      `json:"isComplete"`
}

// IsLastSession reports whether the current index is the final session.
// An index past the end counts as the last one.
func (state TimerState) IsLastSession() bool {
	return state.SessionIndex >= state.TotalSessions-1
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSettingsAreValid(t *testing.T) {
	settings := DefaultSettings()
	assert.GreaterOrEqual(t, settings.NumSessions, 1)
	assert.Positive(t, settings.SessionSeconds)
	assert.Positive(t, settings.ShortBreakSeconds)
	assert.Positive(t, settings.LongBreakSeconds)
	assert.True(t, settings.AudioEnabled)
	assert.False(t, settings.DevMode)
}

func TestPhaseSeconds(t *testing.T) {
	settings := Settings{SessionSeconds: 10, ShortBreakSeconds: 3, LongBreakSeconds: 7}

	seconds, ok := settings.PhaseSeconds(ModeSession)
	assert.True(t, ok)
	assert.Equal(t, 10, seconds)

	seconds, _ = settings.PhaseSeconds(ModeShortBreak)
	assert.Equal(t, 3, seconds)

	seconds, _ = settings.PhaseSeconds(ModeLongBreak)
	assert.Equal(t, 7, seconds)

	_, ok = settings.PhaseSeconds(TimerMode("nap"))
	assert.False(t, ok)
}

func TestTimerModeIsBreak(t *testing.T) {
	assert.False(t, ModeSession.IsBreak())
	assert.True(t, ModeShortBreak.IsBreak())
	assert.True(t, ModeLongBreak.IsBreak())
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "25:00", FormatClock(1500))
	assert.Equal(t, "00:09", FormatClock(9))
	assert.Equal(t, "00:00", FormatClock(-3))
}

func TestIsLastSession(t *testing.T) {
	assert.False(t, TimerState{SessionIndex: 2, TotalSessions: 4}.IsLastSession())
	assert.True(t, TimerState{SessionIndex: 3, TotalSessions: 4}.IsLastSession())
	assert.True(t, TimerState{SessionIndex: 5, TotalSessions: 3}.IsLastSession())
}

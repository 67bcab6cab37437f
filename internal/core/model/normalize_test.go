package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectErrors() (*[]error, func(error)) {
	var errs []error
	return &errs, func(err error) { errs = append(errs, err) }
}

func TestNormalizeSettingsNilPayloadUsesDefaults(t *testing.T) {
	errs, onError := collectErrors()
	assert.Equal(t, DefaultSettings(), NormalizeSettings(nil, onError))
	assert.Empty(t, *errs)
}

func TestNormalizeSettingsReadsAllFields(t *testing.T) {
	raw := map[string]any{
		"numSessions":       float64(6),
		"sessionSeconds":    1200,
		"shortBreakSeconds": "240",
		"longBreakSeconds":  900.0,
		"audioEnabled":      false,
		"colorA":            "#FF0000",
		"colorB":            "0f0",
		"devMode":           "true",
	}
	errs, onError := collectErrors()
	settings := NormalizeSettings(raw, onError)

	require.Empty(t, *errs)
	assert.Equal(t, Settings{
		NumSessions:       6,
		SessionSeconds:    1200,
		ShortBreakSeconds: 240,
		LongBreakSeconds:  900,
		AudioEnabled:      false,
		ColorA:            "#ff0000",
		ColorB:            "#00ff00",
		DevMode:           true,
	}, settings)
}

func TestNormalizeSettingsConvertsMinutes(t *testing.T) {
	raw := map[string]any{
		"sessionMinutes":    50,
		"shortBreakMinutes": 0.5,
		"longBreakMinutes":  "20",
	}
	settings := NormalizeSettings(raw, nil)
	assert.Equal(t, 3000, settings.SessionSeconds)
	assert.Equal(t, 30, settings.ShortBreakSeconds)
	assert.Equal(t, 1200, settings.LongBreakSeconds)
}

func TestNormalizeSettingsSecondsWinOverMinutes(t *testing.T) {
	raw := map[string]any{"sessionSeconds": 90, "sessionMinutes": 50}
	assert.Equal(t, 90, NormalizeSettings(raw, nil).SessionSeconds)
}

func TestNormalizeSettingsInvalidFieldsFallBackAndReport(t *testing.T) {
	raw := map[string]any{
		"numSessions":      0,
		"sessionSeconds":   -5,
		"longBreakMinutes": "soon",
		"audioEnabled":     "maybe",
		"colorA":           "not-a-color",
		"colorB":           true,
	}
	errs, onError := collectErrors()
	settings := NormalizeSettings(raw, onError)

	defaults := DefaultSettings()
	assert.Equal(t, defaults.NumSessions, settings.NumSessions)
	assert.Equal(t, defaults.SessionSeconds, settings.SessionSeconds)
	assert.Equal(t, defaults.LongBreakSeconds, settings.LongBreakSeconds)
	assert.Equal(t, defaults.AudioEnabled, settings.AudioEnabled)
	assert.Equal(t, defaults.ColorA, settings.ColorA)
	assert.Equal(t, defaults.ColorB, settings.ColorB)

	require.Len(t, *errs, 6)
	fields := map[string]bool{}
	for _, err := range *errs {
		assert.True(t, errors.Is(err, ErrInvalidField), "unexpected error %v", err)
		var fieldErr *FieldError
		require.True(t, errors.As(err, &fieldErr))
		fields[fieldErr.Field] = true
	}
	for _, field := range []string{"numSessions", "sessionSeconds", "longBreakMinutes", "audioEnabled", "colorA", "colorB"} {
		assert.True(t, fields[field], "missing error for %s", field)
	}
}

func TestNormalizeSettingsRejectsFractionalCounts(t *testing.T) {
	raw := map[string]any{
		"numSessions":       2.7,
		"sessionSeconds":    25.9,
		"sessionMinutes":    2,
		"shortBreakSeconds": "30.5",
		"longBreakSeconds":  600.0,
	}
	errs, onError := collectErrors()
	settings := NormalizeSettings(raw, onError)

	defaults := DefaultSettings()
	assert.Equal(t, defaults.NumSessions, settings.NumSessions)
	assert.Equal(t, 120, settings.SessionSeconds)
	assert.Equal(t, defaults.ShortBreakSeconds, settings.ShortBreakSeconds)
	assert.Equal(t, 600, settings.LongBreakSeconds)

	require.Len(t, *errs, 3)
	for _, err := range *errs {
		assert.ErrorIs(t, err, ErrInvalidField)
		assert.ErrorContains(t, err, "whole number")
	}
}

func TestNormalizeSettingsUnwrapsEnvelopes(t *testing.T) {
	raw := map[string]any{
		"settings": map[string]any{
			"numSessions": map[string]any{"value": 3, "label": "Sessions"},
			"colorA":      map[string]any{"value": "#123456"},
			"devMode":     map[string]any{"label": "no value"},
		},
	}
	settings := NormalizeSettings(raw, nil)
	assert.Equal(t, 3, settings.NumSessions)
	assert.Equal(t, "#123456", settings.ColorA)
	assert.False(t, settings.DevMode)
}

func TestNormalizeSettingsAcceptsYAMLMaps(t *testing.T) {
	raw := map[string]any{
		"settings": map[any]any{"numSessions": 2},
	}
	assert.Equal(t, 2, NormalizeSettings(raw, nil).NumSessions)
}

func TestNormalizeColor(t *testing.T) {
	color, err := NormalizeColor(" #ABCDEF ")
	require.NoError(t, err)
	assert.Equal(t, "#abcdef", color)

	color, err = NormalizeColor("#F00")
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", color)

	for _, bad := range []string{"", "#12345", "#zzzzzz", "#1234567"} {
		_, err := NormalizeColor(bad)
		assert.Error(t, err, bad)
	}
}

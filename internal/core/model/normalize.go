package model

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/cast"
)

var (
	errNotPositive = errors.New("must be positive")
	errNotNumber   = errors.New("not a number")
	errNotInteger  = errors.New("not a whole number")
)

// NormalizeSettings converts an untyped settings payload into Settings.
// Missing fields take their defaults silently. Fields that are present but
// unusable take their defaults and are reported through onError, which may
// be nil. It never fails.
func NormalizeSettings(raw map[string]any, onError func(error)) Settings {
	settings := DefaultSettings()
	if raw == nil {
		return settings
	}
	if nested, ok := asMap(raw["settings"]); ok {
		raw = nested
	}

	report := func(field string, value any, cause error) {
		if onError == nil {
			return
		}
		onError(&FieldError{Field: field, Value: value, Err: fmt.Errorf("%w: %v", ErrInvalidField, cause)})
	}

	if value, ok := lookup(raw, "numSessions"); ok {
		if count, err := positiveInt(value); err != nil {
			report("numSessions", value, err)
		} else {
			settings.NumSessions = count
		}
	}

	settings.SessionSeconds = phaseField(raw, "session", settings.SessionSeconds, report)
	settings.ShortBreakSeconds = phaseField(raw, "shortBreak", settings.ShortBreakSeconds, report)
	settings.LongBreakSeconds = phaseField(raw, "longBreak", settings.LongBreakSeconds, report)

	settings.AudioEnabled = boolField(raw, "audioEnabled", settings.AudioEnabled, report)
	settings.DevMode = boolField(raw, "devMode", settings.DevMode, report)

	settings.ColorA = colorField(raw, "colorA", settings.ColorA, report)
	settings.ColorB = colorField(raw, "colorB", settings.ColorB, report)

	return settings
}

// NormalizeColor validates a hex color and returns it as lowercase #rrggbb.
func NormalizeColor(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", errors.New("empty color")
	}
	if !strings.HasPrefix(trimmed, "#") {
		trimmed = "#" + trimmed
	}
	if len(trimmed) != 4 && len(trimmed) != 7 {
		return "", fmt.Errorf("%q is not a hex color", value)
	}
	parsed, err := colorful.Hex(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse color %q: %w", value, err)
	}
	return parsed.Hex(), nil
}

type reportFunc func(field string, value any, cause error)

// phaseField reads <prefix>Seconds, falling back to <prefix>Minutes.
func phaseField(raw map[string]any, prefix string, fallback int, report reportFunc) int {
	secondsKey := prefix + "Seconds"
	if value, ok := lookup(raw, secondsKey); ok {
		seconds, err := positiveInt(value)
		if err == nil {
			return seconds
		}
		report(secondsKey, value, err)
	}

	minutesKey := prefix + "Minutes"
	if value, ok := lookup(raw, minutesKey); ok {
		minutes, err := cast.ToFloat64E(value)
		if err != nil || isBool(value) {
			report(minutesKey, value, errNotNumber)
			return fallback
		}
		seconds := int(math.Round(minutes * 60))
		if seconds <= 0 {
			report(minutesKey, value, errNotPositive)
			return fallback
		}
		return seconds
	}
	return fallback
}

func boolField(raw map[string]any, key string, fallback bool, report reportFunc) bool {
	value, ok := lookup(raw, key)
	if !ok {
		return fallback
	}
	parsed, err := cast.ToBoolE(value)
	if err != nil {
		report(key, value, err)
		return fallback
	}
	return parsed
}

func colorField(raw map[string]any, key string, fallback string, report reportFunc) string {
	value, ok := lookup(raw, key)
	if !ok {
		return fallback
	}
	text, err := cast.ToStringE(value)
	if err != nil {
		report(key, value, err)
		return fallback
	}
	normalized, err := NormalizeColor(text)
	if err != nil {
		report(key, value, err)
		return fallback
	}
	return normalized
}

// positiveInt accepts whole numbers only. 2.0 passes, 2.7 is rejected
// rather than truncated.
func positiveInt(value any) (int, error) {
	if isBool(value) {
		return 0, errNotNumber
	}
	parsed, err := cast.ToFloat64E(value)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, errNotNumber
	}
	if parsed != math.Trunc(parsed) {
		return 0, errNotInteger
	}
	if parsed <= 0 {
		return 0, errNotPositive
	}
	return int(parsed), nil
}

// lookup returns a non-nil field, unwrapping {"value": x} setting objects.
func lookup(raw map[string]any, key string) (any, bool) {
	value, ok := raw[key]
	if !ok || value == nil {
		return nil, false
	}
	if wrapped, isMap := asMap(value); isMap {
		inner, hasValue := wrapped["value"]
		if !hasValue || inner == nil {
			return nil, false
		}
		return inner, true
	}
	return value, true
}

func asMap(value any) (map[string]any, bool) {
	switch typed := value.(type) {
	case map[string]any:
		return typed, true
	case map[any]any:
		converted := make(map[string]any, len(typed))
		for key, item := range typed {
			converted[fmt.Sprint(key)] = item
		}
		return converted, true
	default:
		return nil, false
	}
}

func isBool(value any) bool {
	_, ok := value.(bool)
	return ok
}

package preferences

import (
	"errors"
	"strconv"
	"strings"

	"pomodoro/internal/core/model"
)

// Form holds the editable values as typed. Durations are in minutes.
type Form struct {
	Sessions          string
	SessionMinutes    string
	ShortBreakMinutes string
	LongBreakMinutes  string
	AudioEnabled      bool
	DevMode           bool
	ColorA            string
	ColorB            string
}

// FormFromSettings renders settings for editing.
func FormFromSettings(settings model.Settings) Form {
	return Form{
		Sessions:          strconv.Itoa(settings.NumSessions),
		SessionMinutes:    formatMinutes(settings.SessionSeconds),
		ShortBreakMinutes: formatMinutes(settings.ShortBreakSeconds),
		LongBreakMinutes:  formatMinutes(settings.LongBreakSeconds),
		AudioEnabled:      settings.AudioEnabled,
		DevMode:           settings.DevMode,
		ColorA:            settings.ColorA,
		ColorB:            settings.ColorB,
	}
}

// Settings validates the form with the same rules as remote payloads. Every
// rejected field is returned as a *model.FieldError in the joined error.
func (form Form) Settings() (model.Settings, error) {
	raw := map[string]any{
		"numSessions":       strings.TrimSpace(form.Sessions),
		"sessionMinutes":    strings.TrimSpace(form.SessionMinutes),
		"shortBreakMinutes": strings.TrimSpace(form.ShortBreakMinutes),
		"longBreakMinutes":  strings.TrimSpace(form.LongBreakMinutes),
		"audioEnabled":      form.AudioEnabled,
		"devMode":           form.DevMode,
		"colorA":            form.ColorA,
		"colorB":            form.ColorB,
	}

	var errs []error
	settings := model.NormalizeSettings(raw, func(err error) {
		errs = append(errs, err)
	})
	if len(errs) > 0 {
		return model.Settings{}, errors.Join(errs...)
	}
	return settings, nil
}

func formatMinutes(seconds int) string {
	return strconv.FormatFloat(float64(seconds)/60, 'f', -1, 64)
}

package preferences

import (
	"pomodoro/internal/core/model"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog/log"
)

// Window handles the preferences UI.
type Window struct {
	window       fyne.Window
	settings     model.Settings
	onSave       func(model.Settings) error
	sessions     *widget.Entry
	sessionMin   *widget.Entry
	shortMin     *widget.Entry
	longMin      *widget.Entry
	audio        *widget.Check
	devMode      *widget.Check
	colorA       *widget.Entry
	colorB       *widget.Entry
	errorLabel   *widget.Label
	saveButton   *widget.Button
	cancelButton *widget.Button
}

// New creates a preferences window. onSave receives validated settings; a
// returned error keeps the window open.
func New(app fyne.App, settings model.Settings, onSave func(model.Settings) error) *Window {
	window := app.NewWindow("Pomodoro Settings")

	prefs := &Window{
		window:     window,
		onSave:     onSave,
		sessions:   widget.NewEntry(),
		sessionMin: widget.NewEntry(),
		shortMin:   widget.NewEntry(),
		longMin:    widget.NewEntry(),
		audio:      widget.NewCheck("Notify when a phase ends", nil),
		devMode:    widget.NewCheck("Developer panel", nil),
		colorA:     widget.NewEntry(),
		colorB:     widget.NewEntry(),
		errorLabel: widget.NewLabel(""),
	}
	prefs.errorLabel.Wrapping = fyne.TextWrapWord
	prefs.errorLabel.Importance = widget.DangerImportance
	prefs.errorLabel.Hide()

	form := container.NewVBox(
		widget.NewLabelWithStyle("Timer", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Sessions"), prefs.sessions),
		container.NewHBox(widget.NewLabel("Session length"), prefs.sessionMin, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Short break"), prefs.shortMin, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Long break"), prefs.longMin, widget.NewLabel("min")),
		prefs.audio,
		widget.NewLabelWithStyle("Appearance", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Color A"), prefs.colorA),
		container.NewHBox(widget.NewLabel("Color B"), prefs.colorB),
		prefs.devMode,
		prefs.errorLabel,
	)

	prefs.saveButton = widget.NewButton("Save", prefs.handleSave)
	prefs.cancelButton = widget.NewButton("Cancel", func() {
		window.Hide()
	})
	buttons := container.NewHBox(prefs.saveButton, layout.NewSpacer(), prefs.cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(420, 440))
	window.SetCloseIntercept(func() {
		window.Hide()
	})

	prefs.UpdateSettings(settings)
	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings model.Settings) {
	prefs.settings = settings
	form := FormFromSettings(settings)
	prefs.sessions.SetText(form.Sessions)
	prefs.sessionMin.SetText(form.SessionMinutes)
	prefs.shortMin.SetText(form.ShortBreakMinutes)
	prefs.longMin.SetText(form.LongBreakMinutes)
	prefs.audio.SetChecked(form.AudioEnabled)
	prefs.devMode.SetChecked(form.DevMode)
	prefs.colorA.SetText(form.ColorA)
	prefs.colorB.SetText(form.ColorB)
	prefs.errorLabel.Hide()
}

func (prefs *Window) form() Form {
	return Form{
		Sessions:          prefs.sessions.Text,
		SessionMinutes:    prefs.sessionMin.Text,
		ShortBreakMinutes: prefs.shortMin.Text,
		LongBreakMinutes:  prefs.longMin.Text,
		AudioEnabled:      prefs.audio.Checked,
		DevMode:           prefs.devMode.Checked,
		ColorA:            prefs.colorA.Text,
		ColorB:            prefs.colorB.Text,
	}
}

func (prefs *Window) handleSave() {
	settings, err := prefs.form().Settings()
	if err != nil {
		prefs.showError(err)
		return
	}

	if prefs.onSave != nil {
		if err := prefs.onSave(settings); err != nil {
			log.Error().Err(err).Msg("failed to save settings")
			prefs.showError(err)
			return
		}
	}
	prefs.settings = settings
	prefs.errorLabel.Hide()
	prefs.window.Hide()
}

func (prefs *Window) showError(err error) {
	prefs.errorLabel.SetText(err.Error())
	prefs.errorLabel.Show()
}

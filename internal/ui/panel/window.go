package panel

import (
	"context"
	"image/color"

	"pomodoro/internal/core/bridge"
	"pomodoro/internal/core/model"
	"pomodoro/internal/core/pomodoro"
	"pomodoro/internal/ui/animation"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/jonboulle/clockwork"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog/log"
)

// Controls are the timer operations behind the panel buttons.
type Controls interface {
	Retreat()
	TogglePause()
	Advance()
	Reset()
}

// Window is the pomodoro widget: mode glyph, session dots, countdown and
// controls on a two-color gradient.
type Window struct {
	app      fyne.App
	window   fyne.Window
	controls Controls

	background     *canvas.LinearGradient
	glyphLabel     *canvas.Text
	clockLabel     *canvas.Text
	dotsBox        *fyne.Container
	dots           []*canvas.Circle
	previousButton *widget.Button
	pauseButton    *widget.Button
	nextButton     *widget.Button
	resetButton    *widget.Button
	debugLabel     *widget.Label
	debugBox       *fyne.Container

	pulse   *animation.Engine
	pulsing int
	state   model.TimerState
}

const (
	gradientAngle = 135
	dotSide       = float32(14)
)

var (
	textColor        = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	emptyDotColor    = color.NRGBA{}
	dotOutlineColor  = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	defaultWindowDim = fyne.NewSize(320, 360)
)

// New builds the widget window. A nil clock uses the real clock for the
// pulse animation.
func New(app fyne.App, controls Controls, clock clockwork.Clock) *Window {
	window := app.NewWindow("Pomodoro")
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}
	window.SetPadded(false)

	background := canvas.NewLinearGradient(hexColor(model.DefaultColorA), hexColor(model.DefaultColorB), gradientAngle)

	glyphLabel := canvas.NewText("", textColor)
	glyphLabel.Alignment = fyne.TextAlignCenter
	glyphLabel.TextSize = 36

	clockLabel := canvas.NewText("--:--", textColor)
	clockLabel.Alignment = fyne.TextAlignCenter
	clockLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	clockLabel.TextSize = 56

	dotsBox := container.NewGridWrap(fyne.NewSize(dotSide, dotSide))

	panel := &Window{
		app:        app,
		window:     window,
		controls:   controls,
		background: background,
		glyphLabel: glyphLabel,
		clockLabel: clockLabel,
		dotsBox:    dotsBox,
		pulsing:    -1,
	}
	panel.pulse = animation.New(animation.DefaultConfig(), clock, panel.applyPulse)

	panel.previousButton = widget.NewButtonWithIcon("", theme.MediaSkipPreviousIcon(), func() {
		panel.controls.Retreat()
	})
	panel.pauseButton = widget.NewButtonWithIcon("", theme.MediaPauseIcon(), func() {
		panel.controls.TogglePause()
	})
	panel.nextButton = widget.NewButtonWithIcon("", theme.MediaSkipNextIcon(), func() {
		panel.controls.Advance()
	})
	panel.resetButton = widget.NewButtonWithIcon("", theme.MediaReplayIcon(), func() {
		panel.controls.Reset()
	})

	panel.debugLabel = widget.NewLabel("")
	panel.debugLabel.TextStyle = fyne.TextStyle{Monospace: true}
	panel.debugLabel.Wrapping = fyne.TextWrapBreak
	panel.debugBox = container.NewStack(container.NewVScroll(panel.debugLabel))
	panel.debugBox.Hide()

	buttons := container.NewHBox(panel.previousButton, panel.pauseButton, panel.nextButton, panel.resetButton)
	content := container.NewVBox(
		glyphLabel,
		container.NewCenter(dotsBox),
		clockLabel,
		container.NewCenter(buttons),
	)
	body := container.NewBorder(container.NewPadded(content), nil, nil, nil, panel.debugBox)
	window.SetContent(container.NewStack(background, body))
	window.Resize(defaultWindowDim)
	window.SetCloseIntercept(func() {
		window.Hide()
	})

	panel.render(model.TimerState{
		Mode:          model.ModeSession,
		TotalSessions: model.DefaultNumSessions,
		TimeLeftSec:   model.DefaultSessionSeconds,
	})
	return panel
}

// Show brings the widget to the front.
func (panel *Window) Show() {
	panel.window.Show()
	panel.window.RequestFocus()
}

// Hide hides the widget without stopping the timer.
func (panel *Window) Hide() {
	panel.window.Hide()
}

// Close stops the pulse animation.
func (panel *Window) Close() {
	panel.pulse.Stop()
}

// Render shows a timer snapshot. Safe to call from any goroutine.
func (panel *Window) Render(state model.TimerState) {
	fyne.Do(func() {
		panel.render(state)
	})
}

// Bind renders every snapshot delivered on events until the channel closes.
func (panel *Window) Bind(events <-chan pomodoro.Event) {
	go func() {
		for event := range events {
			panel.Render(event.State)
		}
	}()
}

// SetThemeProperty sets one of the gradient colors. Unknown names and
// unparsable colors are ignored.
func (panel *Window) SetThemeProperty(name, value string) {
	parsed, err := colorful.Hex(value)
	if err != nil {
		log.Warn().Err(err).Str("property", name).Str("value", value).Msg("ignoring theme color")
		return
	}
	fyne.Do(func() {
		switch name {
		case bridge.ThemePropertyA:
			panel.background.StartColor = parsed.Clamped()
		case bridge.ThemePropertyB:
			panel.background.EndColor = parsed.Clamped()
		default:
			log.Debug().Str("property", name).Msg("ignoring theme property")
			return
		}
		panel.background.Refresh()
	})
}

// SetDebug shows or hides the developer text below the controls.
func (panel *Window) SetDebug(text string, visible bool) {
	fyne.Do(func() {
		panel.debugLabel.SetText(text)
		if visible {
			panel.debugBox.Show()
			return
		}
		panel.debugBox.Hide()
	})
}

// Glyph returns the symbol shown for a phase.
func Glyph(mode model.TimerMode, timeLeftSec int) string {
	switch mode {
	case model.ModeLongBreak:
		if timeLeftSec == 0 {
			return "✅"
		}
		return "🌴🌴🌴"
	case model.ModeShortBreak:
		return "🌴"
	case model.ModeSession:
		return "⚡️"
	default:
		return "error"
	}
}

func (panel *Window) render(state model.TimerState) {
	panel.state = state

	panel.glyphLabel.Text = Glyph(state.Mode, state.TimeLeftSec)
	panel.glyphLabel.Refresh()
	panel.clockLabel.Text = model.FormatClock(state.TimeLeftSec)
	panel.clockLabel.Refresh()

	if state.IsPaused {
		panel.pauseButton.SetIcon(theme.MediaPlayIcon())
	} else {
		panel.pauseButton.SetIcon(theme.MediaPauseIcon())
	}

	panel.renderDots(state)
}

func (panel *Window) renderDots(state model.TimerState) {
	if len(panel.dots) != state.TotalSessions {
		panel.dots = make([]*canvas.Circle, 0, state.TotalSessions)
		objects := make([]fyne.CanvasObject, 0, state.TotalSessions)
		for i := 0; i < state.TotalSessions; i++ {
			dot := canvas.NewCircle(emptyDotColor)
			dot.StrokeColor = dotOutlineColor
			dot.StrokeWidth = 1.5
			panel.dots = append(panel.dots, dot)
			objects = append(objects, dot)
		}
		panel.dotsBox.Objects = objects
		panel.dotsBox.Refresh()
		panel.pulsing = -1
	}

	pulsing := -1
	if state.TimeLeftSec != 0 && state.SessionIndex >= 0 && state.SessionIndex < len(panel.dots) {
		pulsing = state.SessionIndex
	}
	restart := pulsing != panel.pulsing || panel.pulse.Running() != (pulsing >= 0)
	if restart {
		panel.pulsing = -1
		panel.pulse.Stop()
	}

	for i, dot := range panel.dots {
		if i == panel.pulsing {
			continue
		}
		if i <= state.SessionIndex {
			dot.FillColor = dotOutlineColor
		} else {
			dot.FillColor = emptyDotColor
		}
		dot.Refresh()
	}

	if restart && pulsing >= 0 {
		panel.pulsing = pulsing
		panel.pulse.Start(context.Background())
	}
}

func (panel *Window) applyPulse(alpha uint8) {
	fyne.Do(func() {
		if panel.pulsing < 0 || panel.pulsing >= len(panel.dots) {
			return
		}
		dot := panel.dots[panel.pulsing]
		fill := dotOutlineColor
		fill.A = alpha
		dot.FillColor = fill
		dot.Refresh()
	})
}

func hexColor(value string) color.Color {
	parsed, err := colorful.Hex(value)
	if err != nil {
		return color.Black
	}
	return parsed.Clamped()
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"pomodoro/internal/config"
	"pomodoro/internal/core/bridge"
	"pomodoro/internal/core/model"
	"pomodoro/internal/core/pomodoro"
	"pomodoro/internal/logging"
	"pomodoro/internal/platform"
	"pomodoro/internal/remote"
	"pomodoro/internal/storage"
	"pomodoro/internal/ui/panel"
	"pomodoro/internal/ui/preferences"
	"pomodoro/internal/ui/tray"
	"pomodoro/resources"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const appName = "Pomodoro"

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := logging.Setup(cfg.LogLevel, os.Stderr, cfg.LogPretty); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	guard, err := platform.AcquireSingleInstance(appName)
	if errors.Is(err, platform.ErrAlreadyRunning) {
		log.Info().Err(err).Msg("showing the running widget instead")
		return
	}
	if err != nil {
		log.Warn().Err(err).Msg("single instance")
		return
	}
	defer func() {
		_ = guard.Release()
	}()

	settingsPath := cfg.SettingsFile
	if settingsPath == "" {
		settingsPath, err = storage.SettingsPath(appName)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to resolve settings path")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fyneApp := app.NewWithID("com.pomodoro.widget")
	activeIcon := resources.MustIcon(resources.IconActive)
	pausedIcon := resources.MustIcon(resources.IconPaused)
	fyneApp.SetIcon(activeIcon)

	clock := clockwork.NewRealClock()
	keeper := pomodoro.New(model.DefaultSettings())
	widgetWindow := panel.New(fyneApp, keeper, clock)
	widgetWindow.Bind(keeper.Subscribe(16))
	guard.OnActivate(func() {
		fyne.Do(widgetWindow.Show)
	})

	prefsWindow := preferences.New(fyneApp, keeper.Settings(), func(settings model.Settings) error {
		if err := storage.SaveSettings(settingsPath, settings); err != nil {
			return err
		}
		log.Info().Str("path", settingsPath).Msg("settings saved")
		return nil
	})

	source, closeSource := openSource(ctx, cfg, settingsPath)
	defer closeSource()

	reconciler := bridge.New(keeper, widgetWindow, func(err error) {
		log.Warn().Err(err).Msg("settings problem")
	})
	reconciler.OnApplied(func(applied bridge.Applied) {
		widgetWindow.SetDebug(devPanelText(applied, reconciler.HasReceivedUpdate()), applied.Settings.DevMode)
		fyne.Do(func() {
			prefsWindow.UpdateSettings(applied.Settings)
		})
	})

	var trayManager *tray.Manager
	desktopApp, hasTray := fyneApp.(desktop.App)
	if hasTray {
		trayManager = tray.New(desktopApp, tray.Callbacks{
			OnShow:        widgetWindow.Show,
			OnPreferences: prefsWindow.Show,
			OnTogglePause: keeper.TogglePause,
			OnPrevious:    keeper.Retreat,
			OnNext:        keeper.Advance,
			OnReset:       keeper.Reset,
			OnQuit:        fyneApp.Quit,
		})
		desktopApp.SetSystemTrayIcon(activeIcon)
	} else {
		log.Info().Msg("system tray unsupported on this platform")
	}

	events := keeper.Subscribe(16)
	go func() {
		for event := range events {
			if event.Type == pomodoro.EventExpired && event.Settings.AudioEnabled {
				fyneApp.SendNotification(fyne.NewNotification(appName, phaseEndMessage(event.Expired, event.State)))
			}
			if trayManager == nil {
				continue
			}
			state := event.State
			fyne.Do(func() {
				trayManager.SetStatus(statusLine(state))
				trayManager.SetPaused(state.IsPaused)
				if state.IsPaused {
					desktopApp.SetSystemTrayIcon(pausedIcon)
				} else {
					desktopApp.SetSystemTrayIcon(activeIcon)
				}
			})
		}
	}()

	go pomodoro.NewTicker(keeper, clock, cfg.Tick).Run(ctx)
	go func() {
		if err := reconciler.Run(ctx, source); err != nil {
			log.Error().Err(err).Msg("settings reconciler stopped")
		}
	}()

	fyneApp.Lifecycle().SetOnStopped(func() {
		cancel()
		keeper.Close()
		widgetWindow.Close()
	})

	log.Info().
		Str("source", cfg.Source).
		Str("settings", settingsPath).
		Dur("tick", cfg.Tick).
		Msg("starting pomodoro widget")

	widgetWindow.Show()
	fyneApp.Run()
}

// openSource connects the configured settings source. When the remote side
// is unreachable the local settings file is used instead.
func openSource(ctx context.Context, cfg config.Config, settingsPath string) (bridge.Source, func()) {
	noop := func() {}

	switch cfg.Source {
	case config.SourceNATS:
		nc, err := remote.DialNATS(cfg.NATSURL)
		if err != nil {
			log.Error().Err(err).Str("url", cfg.NATSURL).Msg("falling back to settings file")
			break
		}
		source := remote.NewNATSSource(nc, cfg.NATSInitialSubject, cfg.NATSUpdateSubject, cfg.FetchTimeout)
		return source, nc.Close
	case config.SourceSocket:
		dialCtx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
		defer cancel()
		socket, err := remote.DialSocket(dialCtx, cfg.SocketURL)
		if err != nil {
			log.Error().Err(err).Str("url", cfg.SocketURL).Msg("falling back to settings file")
			break
		}
		return socket, func() {
			_ = socket.Close()
		}
	}
	return storage.NewFileSource(settingsPath), noop
}

func devPanelText(applied bridge.Applied, receivedUpdate bool) string {
	view := struct {
		bridge.Applied
		ReceivedUpdate bool `json:"receivedUpdate"`
	}{applied, receivedUpdate}

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(data)
}

// phaseEndMessage describes the phase that ran out. next is the phase the
// keeper moved on to.
func phaseEndMessage(expired model.TimerMode, next model.TimerState) string {
	switch expired {
	case model.ModeSession:
		if next.Mode == model.ModeLongBreak {
			return "Session done. Time for a long break."
		}
		return "Session done. Take a short break."
	case model.ModeShortBreak:
		return "Break over. Back to work."
	case model.ModeLongBreak:
		return "Long break over. All sessions complete."
	default:
		return "Phase finished."
	}
}

func statusLine(state model.TimerState) string {
	if state.IsComplete {
		return "all sessions complete"
	}
	return fmt.Sprintf("%s %s · session %d/%d",
		panel.Glyph(state.Mode, state.TimeLeftSec),
		model.FormatClock(state.TimeLeftSec),
		state.SessionIndex+1,
		state.TotalSessions,
	)
}

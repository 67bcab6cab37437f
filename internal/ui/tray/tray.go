package tray

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnShow        func()
	OnPreferences func()
	OnTogglePause func()
	OnPrevious    func()
	OnNext        func()
	OnReset       func()
	OnQuit        func()
}

// Manager handles system tray state.
type Manager struct {
	app         desktop.App
	menu        *fyne.Menu
	statusItem  *fyne.MenuItem
	pauseItem   *fyne.MenuItem
	callbacks   Callbacks
	paused      bool
	statusLabel string
}

// New creates a tray manager with the provided callbacks. app may be nil
// when the driver has no system tray.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		callbacks: callbacks,
	}

	manager.statusItem = fyne.NewMenuItem("Status: starting...", nil)
	manager.statusItem.Disabled = true

	manager.pauseItem = fyne.NewMenuItem("Pause", func() {
		call(manager.callbacks.OnTogglePause)
	})

	manager.menu = manager.buildMenu()
	manager.publish()
	return manager
}

// SetStatus updates the status label. The menu is pushed to the tray only
// when the label text actually changes.
func (manager *Manager) SetStatus(status string) {
	if status == manager.statusLabel {
		return
	}
	manager.statusLabel = status
	manager.refreshStatus()
}

// SetPaused updates pause state.
func (manager *Manager) SetPaused(paused bool) {
	if paused == manager.paused {
		return
	}
	manager.paused = paused
	if paused {
		manager.pauseItem.Label = "Resume"
	} else {
		manager.pauseItem.Label = "Pause"
	}
	manager.refreshStatus()
}

// Menu returns the tray menu. The same menu is reused for the manager's
// lifetime and only its item labels change.
func (manager *Manager) Menu() *fyne.Menu {
	return manager.menu
}

func (manager *Manager) buildMenu() *fyne.Menu {
	return fyne.NewMenu("Pomodoro",
		manager.statusItem,
		fyne.NewMenuItemSeparator(),
		manager.pauseItem,
		fyne.NewMenuItem("Previous", func() {
			call(manager.callbacks.OnPrevious)
		}),
		fyne.NewMenuItem("Next", func() {
			call(manager.callbacks.OnNext)
		}),
		fyne.NewMenuItem("Reset", func() {
			call(manager.callbacks.OnReset)
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Show", func() {
			call(manager.callbacks.OnShow)
		}),
		fyne.NewMenuItem("Preferences", func() {
			call(manager.callbacks.OnPreferences)
		}),
		fyne.NewMenuItem("Quit", func() {
			call(manager.callbacks.OnQuit)
		}),
	)
}

func (manager *Manager) refreshStatus() {
	status := manager.statusLabel
	if manager.paused {
		status = fmt.Sprintf("%s (paused)", status)
	}
	label := fmt.Sprintf("Status: %s", status)
	if label == manager.statusItem.Label {
		return
	}
	manager.statusItem.Label = label
	manager.publish()
}

func (manager *Manager) publish() {
	if manager.app != nil {
		manager.app.SetSystemTrayMenu(manager.menu)
	}
}

func call(handler func()) {
	if handler != nil {
		handler()
	}
}

package tray

import (
	"testing"

	"fyne.io/fyne/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDesktop struct {
	menus []*fyne.Menu
}

func (app *fakeDesktop) SetSystemTrayMenu(menu *fyne.Menu)    { app.menus = append(app.menus, menu) }
func (app *fakeDesktop) SetSystemTrayIcon(icon fyne.Resource) {}
func (app *fakeDesktop) SetSystemTrayWindow(window fyne.Window) {}

func (app *fakeDesktop) last() *fyne.Menu {
	return app.menus[len(app.menus)-1]
}

func item(t *testing.T, menu *fyne.Menu, label string) *fyne.MenuItem {
	t.Helper()
	for _, entry := range menu.Items {
		if entry.Label == label {
			return entry
		}
	}
	require.Failf(t, "missing menu item", "%q", label)
	return nil
}

func TestMenuCallbacks(t *testing.T) {
	var calls []string
	record := func(name string) func() {
		return func() { calls = append(calls, name) }
	}
	app := &fakeDesktop{}
	New(app, Callbacks{
		OnShow:        record("show"),
		OnPreferences: record("preferences"),
		OnTogglePause: record("toggle"),
		OnPrevious:    record("previous"),
		OnNext:        record("next"),
		OnReset:       record("reset"),
		OnQuit:        record("quit"),
	})
	require.NotEmpty(t, app.menus)

	menu := app.last()
	for _, label := range []string{"Pause", "Previous", "Next", "Reset", "Show", "Preferences", "Quit"} {
		item(t, menu, label).Action()
	}
	assert.Equal(t, []string{"toggle", "previous", "next", "reset", "show", "preferences", "quit"}, calls)
}

func TestStatusAndPause(t *testing.T) {
	app := &fakeDesktop{}
	manager := New(app, Callbacks{})

	manager.SetStatus("⚡️ 24:59 · session 1/4")
	assert.Equal(t, "Status: ⚡️ 24:59 · session 1/4", app.last().Items[0].Label)

	manager.SetPaused(true)
	menu := app.last()
	assert.Equal(t, "Status: ⚡️ 24:59 · session 1/4 (paused)", menu.Items[0].Label)
	item(t, menu, "Resume")

	manager.SetPaused(false)
	item(t, app.last(), "Pause")
}

func TestNilCallbacksAndApp(t *testing.T) {
	manager := New(nil, Callbacks{})
	manager.SetStatus("idle")

	for _, entry := range manager.Menu().Items {
		if entry.Action != nil {
			entry.Action()
		}
	}
	assert.Equal(t, "Status: idle", manager.Menu().Items[0].Label)
}

func TestStatusUpdatesReuseMenu(t *testing.T) {
	app := &fakeDesktop{}
	manager := New(app, Callbacks{})
	menu := manager.Menu()
	require.Len(t, app.menus, 1)

	manager.SetStatus("⚡️ 24:59 · session 1/4")
	manager.SetStatus("⚡️ 24:58 · session 1/4")
	manager.SetPaused(true)
	require.Len(t, app.menus, 4)
	for _, pushed := range app.menus {
		assert.Same(t, menu, pushed)
	}
	assert.Equal(t, "Status: ⚡️ 24:58 · session 1/4 (paused)", menu.Items[0].Label)
}

func TestUnchangedStatusIsNotPushed(t *testing.T) {
	app := &fakeDesktop{}
	manager := New(app, Callbacks{})

	manager.SetStatus("⏸️ 10:00 · session 2/4")
	manager.SetStatus("⏸️ 10:00 · session 2/4")
	manager.SetPaused(false)
	assert.Len(t, app.menus, 2)
}

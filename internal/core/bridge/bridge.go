// Package bridge reconciles asynchronously delivered settings with the
// running pomodoro state machine and the presentation theme.
package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pomodoro/internal/core/model"

	"github.com/rs/zerolog/log"
)

// Theme property names pushed on every settings application.
const (
	ThemePropertyA = "--themeA"
	ThemePropertyB = "--themeB"
)

// Source delivers raw settings payloads: one initial fetch, then pushes.
type Source interface {
	// FetchInitial returns the current settings, or nil when the source has
	// nothing to offer.
	FetchInitial(ctx context.Context) (map[string]any, error)
	// Subscribe returns a channel of later updates that stays open until ctx
	// is cancelled or the source goes away.
	Subscribe(ctx context.Context) (<-chan map[string]any, error)
}

// Target receives validated settings and the initial timer reset.
type Target interface {
	ApplySettings(settings model.Settings)
	SetTimeLeft(seconds int)
	SetPaused(paused bool)
}

// ThemeSink receives named color values.
type ThemeSink interface {
	SetThemeProperty(name, value string)
}

// Origin tells whether settings came from the initial fetch or a push.
type Origin string

const (
	OriginInitial Origin = "initial"
	OriginUpdate  Origin = "update"
)

// Applied records one settings application.
type Applied struct {
	Origin   Origin         `json:"source"`
	Settings model.Settings `json:"settings"`
	At       time.Time      `json:"at"`
}

// Reconciler applies settings from a Source in a single serialized loop.
type Reconciler struct {
	target  Target
	theme   ThemeSink
	onError func(error)

	mu             sync.Mutex
	last           Applied
	hasApplied     bool
	receivedUpdate bool
	listeners      []func(Applied)
}

// New creates a Reconciler. theme and onError may be nil.
func New(target Target, theme ThemeSink, onError func(error)) *Reconciler {
	return &Reconciler{target: target, theme: theme, onError: onError}
}

// OnApplied registers a callback run after every application.
func (reconciler *Reconciler) OnApplied(listener func(Applied)) {
	reconciler.mu.Lock()
	defer reconciler.mu.Unlock()
	reconciler.listeners = append(reconciler.listeners, listener)
}

// Run subscribes to updates, fetches the initial settings once and applies
// everything in order. Updates that arrive before the initial fetch resolves
// are held back until it has been applied. Run returns when ctx is cancelled
// or the update channel closes.
func (reconciler *Reconciler) Run(ctx context.Context, source Source) error {
	updates, err := source.Subscribe(ctx)
	if err != nil {
		reconciler.reportError(fmt.Errorf("subscribe settings updates: %w", err))
		updates = nil
	}

	type fetchResult struct {
		raw map[string]any
		err error
	}
	initial := make(chan fetchResult, 1)
	go func() {
		raw, err := source.FetchInitial(ctx)
		initial <- fetchResult{raw: raw, err: err}
	}()

	var pending []map[string]any
	updatesClosed := false
	for initial != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case result := <-initial:
			initial = nil
			if result.err != nil {
				reconciler.reportError(fmt.Errorf("fetch initial settings: %w", result.err))
				result.raw = nil
			}
			reconciler.applyInitial(result.raw)
		case raw, ok := <-updates:
			if !ok {
				updates = nil
				updatesClosed = true
				continue
			}
			pending = append(pending, raw)
		}
	}

	if len(pending) > 0 {
		log.Debug().Int("count", len(pending)).Msg("applying settings updates held during initial fetch")
	}
	for _, raw := range pending {
		reconciler.applyUpdate(raw)
	}

	if updatesClosed {
		return nil
	}
	if updates == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-updates:
			if !ok {
				return nil
			}
			reconciler.applyUpdate(raw)
		}
	}
}

// LastApplied returns the most recent application, if any.
func (reconciler *Reconciler) LastApplied() (Applied, bool) {
	reconciler.mu.Lock()
	defer reconciler.mu.Unlock()
	return reconciler.last, reconciler.hasApplied
}

// HasReceivedUpdate reports whether any push update has been applied.
func (reconciler *Reconciler) HasReceivedUpdate() bool {
	reconciler.mu.Lock()
	defer reconciler.mu.Unlock()
	return reconciler.receivedUpdate
}

func (reconciler *Reconciler) applyInitial(raw map[string]any) {
	settings := model.NormalizeSettings(raw, reconciler.reportError)
	reconciler.apply(OriginInitial, settings)
	reconciler.target.SetTimeLeft(settings.SessionSeconds)
	reconciler.target.SetPaused(false)
	log.Info().
		Int("sessions", settings.NumSessions).
		Int("session_seconds", settings.SessionSeconds).
		Bool("defaults", raw == nil).
		Msg("initial settings applied")
}

func (reconciler *Reconciler) applyUpdate(raw map[string]any) {
	settings := model.NormalizeSettings(raw, reconciler.reportError)
	reconciler.mu.Lock()
	reconciler.receivedUpdate = true
	reconciler.mu.Unlock()
	reconciler.apply(OriginUpdate, settings)
	log.Info().Int("sessions", settings.NumSessions).Msg("settings update applied")
}

func (reconciler *Reconciler) apply(origin Origin, settings model.Settings) {
	if reconciler.theme != nil {
		reconciler.theme.SetThemeProperty(ThemePropertyA, settings.ColorA)
		reconciler.theme.SetThemeProperty(ThemePropertyB, settings.ColorB)
	}
	reconciler.target.ApplySettings(settings)

	applied := Applied{Origin: origin, Settings: settings, At: time.Now()}
	reconciler.mu.Lock()
	reconciler.last = applied
	reconciler.hasApplied = true
	listeners := append([]func(Applied){}, reconciler.listeners...)
	reconciler.mu.Unlock()

	for _, listener := range listeners {
		listener(applied)
	}
}

func (reconciler *Reconciler) reportError(err error) {
	if err == nil || reconciler.onError == nil {
		return
	}
	reconciler.onError(err)
}

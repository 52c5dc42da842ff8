package tray

import (
	"fmt"
	"strings"
	"time"

	"focusflow/internal/core/model"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

const menuTitle = "FocusFlow"

// PauseOptions are the durations offered under "Disable breaks for...".
var PauseOptions = []time.Duration{5 * time.Minute, 15 * time.Minute, 30 * time.Minute, 60 * time.Minute}

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnSettings    func()
	OnInsights    func()
	OnTogglePause func()
	OnSkipBreak   func()
	OnPauseFor    func(time.Duration)
	OnForceLong   func()
	OnQuit        func()
}

// Manager handles system tray state.
type Manager struct {
	app        desktop.App
	callbacks  Callbacks
	statusItem *fyne.MenuItem
	pauseItem  *fyne.MenuItem
	skipItem   *fyne.MenuItem

	timer      string
	flow       model.FlowState
	points     int
	showPoints bool
	paused     bool
	inBreak    bool
}

// New creates a tray manager with the provided callbacks. app may be nil,
// in which case only the menu state is tracked.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:        app,
		callbacks:  callbacks,
		timer:      "starting...",
		flow:       model.FlowResting,
		showPoints: true,
	}

	manager.statusItem = fyne.NewMenuItem("", nil)
	manager.statusItem.Disabled = true
	manager.pauseItem = fyne.NewMenuItem("Pause", func() {
		invoke(manager.callbacks.OnTogglePause)
	})
	manager.skipItem = fyne.NewMenuItem("Skip break", func() {
		invoke(manager.callbacks.OnSkipBreak)
	})
	manager.skipItem.Disabled = true

	manager.refresh()
	return manager
}

// SetTimer updates the countdown part of the status line.
func (manager *Manager) SetTimer(status string) {
	manager.timer = status
	manager.refresh()
}

// SetFlow updates the flow state shown in the status line.
func (manager *Manager) SetFlow(state model.FlowState) {
	manager.flow = state
	manager.refresh()
}

// SetPoints updates the point total shown in the status line.
func (manager *Manager) SetPoints(total int) {
	manager.points = total
	manager.refresh()
}

// SetShowPoints hides or shows the point total.
func (manager *Manager) SetShowPoints(show bool) {
	manager.showPoints = show
	manager.refresh()
}

// SetPaused updates pause state.
func (manager *Manager) SetPaused(paused bool) {
	manager.paused = paused
	if paused {
		manager.pauseItem.Label = "Resume"
	} else {
		manager.pauseItem.Label = "Pause"
	}
	manager.refresh()
}

// SetInBreak toggles break-related menu items.
func (manager *Manager) SetInBreak(inBreak bool) {
	manager.inBreak = inBreak
	manager.skipItem.Disabled = !inBreak
	manager.refresh()
}

// Status returns the current status line.
func (manager *Manager) Status() string {
	return manager.statusItem.Label
}

// Menu builds the tray menu for the current state.
func (manager *Manager) Menu() *fyne.Menu {
	pauseFor := fyne.NewMenuItem("Disable breaks for...", nil)
	options := make([]*fyne.MenuItem, 0, len(PauseOptions))
	for _, duration := range PauseOptions {
		duration := duration
		options = append(options, fyne.NewMenuItem(fmt.Sprintf("%d minutes", int(duration.Minutes())), func() {
			if manager.callbacks.OnPauseFor != nil {
				manager.callbacks.OnPauseFor(duration)
			}
		}))
	}
	pauseFor.ChildMenu = fyne.NewMenu("", options...)

	return fyne.NewMenu(menuTitle,
		manager.statusItem,
		fyne.NewMenuItem("Settings", func() { invoke(manager.callbacks.OnSettings) }),
		fyne.NewMenuItem("Insights", func() { invoke(manager.callbacks.OnInsights) }),
		pauseFor,
		fyne.NewMenuItem("Take a long break now", func() { invoke(manager.callbacks.OnForceLong) }),
		manager.pauseItem,
		manager.skipItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { invoke(manager.callbacks.OnQuit) }),
	)
}

func (manager *Manager) refresh() {
	parts := []string{manager.timer}
	if manager.paused {
		parts[0] = fmt.Sprintf("%s (paused)", manager.timer)
	}
	parts = append(parts, string(manager.flow))
	if manager.showPoints {
		parts = append(parts, fmt.Sprintf("%d pts", manager.points))
	}
	manager.statusItem.Label = "Status: " + strings.Join(parts, " · ")

	if manager.app != nil {
		manager.app.SetSystemTrayMenu(manager.Menu())
	}
}

func invoke(callback func()) {
	if callback != nil {
		callback()
	}
}

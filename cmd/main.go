package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"focusflow/internal/app"
	"focusflow/internal/config"
	"focusflow/internal/core/events"
	"focusflow/internal/core/model"
	"focusflow/internal/core/timekeeper"
	"focusflow/internal/logging"
	"focusflow/internal/platform"
	"focusflow/internal/storage"
	"focusflow/internal/ui/overlay"
	"focusflow/internal/ui/settings"
	"focusflow/internal/ui/tray"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"
)

const (
	appName = "FocusFlow"
	appID   = "com.focusflow.app"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "focusflow: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath, err := storage.ResolvePath("focusflow", "config.yaml")
	if err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()
	log := logger.Named("main")

	guard, err := platform.AcquireSingleInstance(appName)
	if err != nil {
		if errors.Is(err, platform.ErrAlreadyRunning) {
			log.Info("another instance is running, asking it to show settings")
			return platform.Activate(appName)
		}
		return err
	}
	defer func() {
		_ = guard.Release()
	}()

	fyneApp := fyneapp.NewWithID(appID)
	desktopApp, ok := fyneApp.(desktop.App)
	if !ok {
		return errors.New("system tray unsupported on this platform")
	}

	core, err := app.Open(cfg, logger, fyneApp.Preferences())
	if err != nil {
		return err
	}
	defer func() {
		if err := core.Close(); err != nil {
			log.Warn("close core", zap.Error(err))
		}
	}()

	shell := newShell(fyneApp, desktopApp, core, log)
	guard.OnActivate(func() {
		fyne.Do(shell.settings.Show)
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	shell.start(ctx)

	fyneApp.Run()
	shell.stop()
	return nil
}

// shell owns the desktop widgets and the break timer.
type shell struct {
	fyneApp fyne.App
	core    *app.Core
	log     *zap.Logger

	keeper   *timekeeper.TimeKeeper
	tray     *tray.Manager
	settings *settings.Window
	overlay  *overlay.Window

	mu         sync.Mutex
	paused     bool
	pauseTimer *time.Timer
	tip        string
	unsubs     []func()
}

func newShell(fyneApp fyne.App, desktopApp desktop.App, core *app.Core, log *zap.Logger) *shell {
	prefs := core.Preferences.Get()
	shell := &shell{
		fyneApp: fyneApp,
		core:    core,
		log:     log,
		keeper:  timekeeper.New(prefs.TimeKeeperConfig(), timekeeper.Config{TickInterval: time.Second}),
	}
	shell.keeper.SetIdleChecker(platform.NewIdleChecker())

	trayWindow := fyneApp.NewWindow(appName)
	trayWindow.SetContent(widget.NewLabel("FocusFlow is running in the system tray."))
	trayWindow.SetCloseIntercept(trayWindow.Hide)
	trayWindow.Hide()
	desktopApp.SetSystemTrayWindow(trayWindow)

	shell.settings = settings.New(fyneApp, core.Preferences)
	shell.settings.SetInsights(core.Analytics.GenerateInsights(), core.Rewards.Points())

	shell.overlay = overlay.New(fyneApp, overlayConfig(prefs))
	shell.overlay.SetOnSkip(shell.keeper.SkipBreak)

	shell.tray = tray.New(desktopApp, tray.Callbacks{
		OnSettings:    shell.settings.Show,
		OnInsights:    shell.settings.ShowInsights,
		OnTogglePause: shell.togglePause,
		OnSkipBreak:   shell.keeper.SkipBreak,
		OnPauseFor:    shell.pauseFor,
		OnForceLong:   func() { shell.keeper.ForceBreak(timekeeper.StateLongBreak) },
		OnQuit:        fyneApp.Quit,
	})
	shell.tray.SetFlow(core.Analytics.FlowState())
	shell.tray.SetPoints(core.Rewards.Points().Total)
	shell.tray.SetShowPoints(prefs.Gamification.ShowPoints)

	core.RegisterDefaultShortcuts(app.Controls{
		TogglePause: shell.togglePause,
		SkipBreak:   shell.keeper.SkipBreak,
		LongBreak:   func() { shell.keeper.ForceBreak(timekeeper.StateLongBreak) },
	})
	core.Shortcuts.BindCanvas(shell.settings.Window().Canvas())

	return shell
}

func (shell *shell) start(ctx context.Context) {
	bus := shell.core.Bus
	shell.unsubs = append(shell.unsubs,
		events.On(bus, func(change events.FlowStateChange, _ events.Event) {
			fyne.Do(func() { shell.tray.SetFlow(change.Current) })
		}),
		events.On(bus, func(update events.RewardUpdate, _ events.Event) {
			fyne.Do(func() { shell.tray.SetPoints(update.Total) })
		}),
		events.On(bus, func(update events.InsightsUpdated, _ events.Event) {
			shell.mu.Lock()
			shell.tip = firstRecommendation(update.Insights)
			shell.mu.Unlock()
			points := shell.core.Rewards.Points()
			fyne.Do(func() { shell.settings.SetInsights(update.Insights, points) })
		}),
		events.On(bus, func(change events.PreferencesChanged, _ events.Event) {
			prefs := change.Preferences
			shell.keeper.UpdateConfig(prefs.TimeKeeperConfig())
			fyne.Do(func() {
				shell.overlay.UpdateConfig(overlayConfig(prefs))
				shell.tray.SetShowPoints(prefs.Gamification.ShowPoints)
			})
		}),
	)
	shell.tip = firstRecommendation(shell.core.Analytics.GenerateInsights())

	bridge := timekeeper.NewBridge(bus, func() model.Intensity {
		return shell.core.Preferences.Get().Focus.DefaultIntensity
	}, shell.log)
	go bridge.Run(ctx, shell.keeper.Subscribe(16))

	timerEvents := shell.keeper.Subscribe(8)
	go func() {
		for event := range timerEvents {
			event := event
			fyne.Do(func() { shell.handleTimerEvent(event) })
		}
	}()

	shell.keeper.Start()
}

func (shell *shell) stop() {
	for _, unsubscribe := range shell.unsubs {
		unsubscribe()
	}
	shell.mu.Lock()
	if shell.pauseTimer != nil {
		shell.pauseTimer.Stop()
	}
	shell.mu.Unlock()
	shell.keeper.Stop()
}

func (shell *shell) handleTimerEvent(event timekeeper.Event) {
	switch event.Type {
	case timekeeper.EventStateChange:
		switch event.State {
		case timekeeper.StateShortBreak, timekeeper.StateLongBreak:
			shell.tray.SetInBreak(true)
			kind := overlay.KindShort
			if event.State == timekeeper.StateLongBreak {
				kind = overlay.KindLong
			}
			shell.mu.Lock()
			tip := shell.tip
			shell.mu.Unlock()
			shell.overlay.Show(overlay.Break{
				Kind:       kind,
				Remaining:  event.Remaining,
				StrictMode: event.StrictMode,
				Tip:        tip,
			})
		case timekeeper.StateWork:
			shell.tray.SetInBreak(false)
			shell.overlay.Hide()
		case timekeeper.StatePaused:
			shell.tray.SetPaused(true)
		}
	case timekeeper.EventProgress:
		switch event.State {
		case timekeeper.StateShortBreak, timekeeper.StateLongBreak:
			shell.overlay.SetRemaining(event.Remaining)
		case timekeeper.StateWork:
			shell.tray.SetTimer("next break in " + formatRemaining(event.Remaining))
		}
	}
}

func (shell *shell) togglePause() {
	shell.mu.Lock()
	shell.paused = !shell.paused
	paused := shell.paused
	shell.mu.Unlock()

	if paused {
		shell.keeper.Pause()
	} else {
		shell.keeper.Resume()
	}
	shell.tray.SetPaused(paused)
}

func (shell *shell) pauseFor(duration time.Duration) {
	shell.mu.Lock()
	if shell.pauseTimer != nil {
		shell.pauseTimer.Stop()
	}
	shell.paused = true
	shell.pauseTimer = time.AfterFunc(duration, func() {
		shell.mu.Lock()
		shell.paused = false
		shell.mu.Unlock()
		shell.keeper.Resume()
		fyne.Do(func() { shell.tray.SetPaused(false) })
	})
	shell.mu.Unlock()

	shell.keeper.Pause()
	shell.tray.SetPaused(true)
}

func overlayConfig(prefs model.Preferences) overlay.Config {
	return overlay.Config{
		Opacity:    overlay.OpacityToAlpha(prefs.Visual.OverlayOpacity),
		Fullscreen: prefs.Visual.Fullscreen,
	}
}

func firstRecommendation(insights model.Insights) string {
	if len(insights.Recommendations) == 0 {
		return "Look at something far away and breathe."
	}
	return insights.Recommendations[0]
}

func formatRemaining(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	seconds := int(remaining.Seconds())
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

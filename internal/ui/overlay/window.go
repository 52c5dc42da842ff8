package overlay

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Kind distinguishes the two break lengths.
type Kind string

const (
	KindShort Kind = "short"
	KindLong  Kind = "long"
)

// Config defines overlay visuals.
type Config struct {
	Opacity    uint8
	Fullscreen bool
}

// Break describes one overlay session.
type Break struct {
	Kind       Kind
	Remaining  time.Duration
	StrictMode bool
	Tip        string
}

// Window shows the break overlay.
type Window struct {
	window     fyne.Window
	config     Config
	background *canvas.Rectangle
	titleLabel *canvas.Text
	tipLabel   *widget.Label
	timerLabel *canvas.Text
	skipButton *widget.Button
	onSkip     func()
}

const (
	overlayWidthFraction  = float32(0.22)
	overlayHeightFraction = float32(0.22)
	defaultScreenWidth    = float32(1920)
	defaultScreenHeight   = float32(1080)
)

var (
	accentColor = color.NRGBA{R: 96, G: 196, B: 160, A: 255}
	textColor   = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

type splashWindowDriver interface {
	CreateSplashWindow() fyne.Window
}

// New creates a hidden overlay window.
func New(app fyne.App, config Config) *Window {
	window := app.NewWindow("FocusFlow break")
	if driver, ok := app.Driver().(splashWindowDriver); ok {
		// Splash windows have no native frame.
		window = driver.CreateSplashWindow()
	}
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}
	window.SetPadded(false)

	overlay := &Window{
		window:     window,
		config:     config,
		background: canvas.NewRectangle(color.NRGBA{A: config.Opacity}),
		titleLabel: canvas.NewText("", textColor),
		tipLabel:   widget.NewLabel(""),
		timerLabel: canvas.NewText("--:--", accentColor),
	}
	overlay.titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	overlay.titleLabel.TextSize = 21
	overlay.tipLabel.Wrapping = fyne.TextWrapWord
	overlay.timerLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	overlay.timerLabel.TextSize = 28
	overlay.skipButton = widget.NewButton("Skip", func() {
		if overlay.onSkip != nil {
			overlay.onSkip()
		}
	})

	content := container.NewPadded(container.NewVBox(
		overlay.titleLabel,
		overlay.tipLabel,
		container.NewCenter(overlay.timerLabel),
		container.NewCenter(overlay.skipButton),
	))
	window.SetContent(container.NewStack(overlay.background, content))
	overlay.applyWindowMode()

	return overlay
}

// Show displays the overlay for a break.
func (overlay *Window) Show(session Break) {
	overlay.titleLabel.Text = title(session.Kind)
	overlay.titleLabel.Refresh()
	overlay.tipLabel.SetText(session.Tip)
	overlay.SetRemaining(session.Remaining)
	overlay.SetStrictMode(session.StrictMode)
	overlay.applyWindowMode()
	overlay.window.Show()
	overlay.window.RequestFocus()
}

// Hide closes the overlay.
func (overlay *Window) Hide() {
	if overlay.config.Fullscreen {
		overlay.window.SetFullScreen(false)
	}
	overlay.window.Hide()
}

// SetRemaining updates the timer label.
func (overlay *Window) SetRemaining(remaining time.Duration) {
	overlay.timerLabel.Text = formatDuration(remaining)
	overlay.timerLabel.Refresh()
}

// SetStrictMode toggles the skip button.
func (overlay *Window) SetStrictMode(enabled bool) {
	if enabled {
		overlay.skipButton.Disable()
		return
	}
	overlay.skipButton.Enable()
}

// SetOnSkip sets the skip handler.
func (overlay *Window) SetOnSkip(handler func()) {
	overlay.onSkip = handler
}

// UpdateConfig updates overlay visuals.
func (overlay *Window) UpdateConfig(config Config) {
	overlay.config = config
	overlay.background.FillColor = color.NRGBA{A: config.Opacity}
	canvas.Refresh(overlay.background)
	overlay.applyWindowMode()
}

// OpacityToAlpha converts a 0..1 opacity preference to an alpha channel.
func OpacityToAlpha(opacity float64) uint8 {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	return uint8(opacity * 255)
}

func (overlay *Window) applyWindowMode() {
	if overlay.config.Fullscreen {
		overlay.window.SetFullScreen(true)
		return
	}
	overlay.window.SetFullScreen(false)
	overlay.resizeToScreenFraction()
}

func (overlay *Window) resizeToScreenFraction() {
	screenSize := fyne.NewSize(defaultScreenWidth, defaultScreenHeight)
	canvasSize := overlay.window.Canvas().Size()
	if canvasSize.Width >= 1024 && canvasSize.Height >= 720 {
		screenSize = canvasSize
	}

	minSize := overlay.window.Content().MinSize()
	width := max(screenSize.Width*overlayWidthFraction, minSize.Width)
	height := max(screenSize.Height*overlayHeightFraction, minSize.Height)

	overlay.window.Resize(fyne.NewSize(width, height))
	overlay.window.CenterOnScreen()
}

func title(kind Kind) string {
	if kind == KindLong {
		return "Long break: step away"
	}
	return "Short break: rest your eyes"
}

func formatDuration(value time.Duration) string {
	if value < 0 {
		value = 0
	}
	seconds := int(value.Seconds())
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

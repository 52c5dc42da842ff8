package overlay

import (
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	cases := map[time.Duration]string{
		-time.Second:                  "00:00",
		0:                             "00:00",
		59 * time.Second:              "00:59",
		5*time.Minute + 3*time.Second: "05:03",
	}
	for input, want := range cases {
		assert.Equal(t, want, formatDuration(input), input.String())
	}
}

func TestOpacityToAlpha(t *testing.T) {
	assert.Equal(t, uint8(0), OpacityToAlpha(-1))
	assert.Equal(t, uint8(255), OpacityToAlpha(2))
	assert.Equal(t, uint8(216), OpacityToAlpha(0.85))
}

func TestShowBreak(t *testing.T) {
	overlay := New(test.NewTempApp(t), Config{Opacity: 200})

	skipped := 0
	overlay.SetOnSkip(func() { skipped++ })
	overlay.Show(Break{Kind: KindLong, Remaining: 90 * time.Second, StrictMode: true, Tip: "Stretch."})

	assert.Equal(t, "Long break: step away", overlay.titleLabel.Text)
	assert.Equal(t, "Stretch.", overlay.tipLabel.Text)
	assert.Equal(t, "01:30", overlay.timerLabel.Text)
	assert.True(t, overlay.skipButton.Disabled())

	overlay.SetStrictMode(false)
	test.Tap(overlay.skipButton)
	assert.Equal(t, 1, skipped)

	overlay.Hide()
}

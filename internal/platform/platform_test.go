package platform

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingService struct {
	platformService
	enabled  []string
	disabled []string
}

func (service *recordingService) EnableAutostart(appName, execPath string) error {
	service.enabled = append(service.enabled, appName+"="+execPath)
	return nil
}

func (service *recordingService) DisableAutostart(appName string) error {
	service.disabled = append(service.disabled, appName)
	return nil
}

func TestSetAutostart(t *testing.T) {
	service := &recordingService{}
	require.NoError(t, SetAutostart(service, "FocusFlow", "/usr/bin/focusflow", true))
	require.NoError(t, SetAutostart(service, "FocusFlow", "", false))

	assert.Equal(t, []string{"FocusFlow=/usr/bin/focusflow"}, service.enabled)
	assert.Equal(t, []string{"FocusFlow"}, service.disabled)
}

func TestAutostartArguments(t *testing.T) {
	assert.Error(t, checkAutostartArgs("", "/bin/true"))
	assert.Error(t, checkAutostartArgs("FocusFlow", ""))
	assert.NoError(t, checkAutostartArgs("FocusFlow", "/bin/true"))
	assert.Error(t, checkAppName(""))
}

func TestSingleInstance(t *testing.T) {
	name := "focusflow-test-" + t.Name()
	guard, err := AcquireSingleInstance(name)
	require.NoError(t, err)
	assert.NotEmpty(t, guard.Address())

	_, err = AcquireSingleInstance(name)
	assert.True(t, errors.Is(err, ErrAlreadyRunning))

	require.NoError(t, guard.Release())
	again, err := AcquireSingleInstance(name)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestPortFromNameIsStable(t *testing.T) {
	port := portFromName("FocusFlow")
	assert.Equal(t, port, portFromName("FocusFlow"))
	assert.GreaterOrEqual(t, port, 20000)
	assert.LessOrEqual(t, port, 39999)
}

func TestActivateReachesRunningInstance(t *testing.T) {
	name := "focusflow-test-" + t.Name()
	guard, err := AcquireSingleInstance(name)
	require.NoError(t, err)

	activated := make(chan struct{}, 1)
	guard.OnActivate(func() { activated <- struct{}{} })

	require.NoError(t, Activate(name))
	select {
	case <-activated:
	case <-time.After(2 * time.Second):
		t.Fatal("activation was not delivered")
	}

	require.NoError(t, guard.Release())
	assert.Error(t, Activate(name))
}

func TestParseIdleMillis(t *testing.T) {
	idle, err := parseIdleMillis("1500\n")
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, idle)

	idle, err = parseIdleMillis("-4")
	require.NoError(t, err)
	assert.Zero(t, idle)

	_, err = parseIdleMillis("n/a")
	assert.Error(t, err)
}

func TestParseHIDIdleTime(t *testing.T) {
	output := `+-o IOHIDSystem  <class IOHIDSystem>
    {
      "HIDIdleTimeDelta" = 0
      "HIDIdleTime" = 2500000000
    }`
	idle, err := parseHIDIdleTime(output)
	require.NoError(t, err)
	assert.Equal(t, 2500*time.Millisecond, idle)

	_, err = parseHIDIdleTime("nothing here")
	assert.Error(t, err)
}

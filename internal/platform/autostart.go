package platform

import (
	"errors"
	"fmt"
	"os"
)

const (
	defaultAutostartName = "focusflow"
	launchAgentPrefix    = "com.focusflow."
)

// Service defines OS-specific helpers needed by the application.
type Service interface {
	GetConfigDir() (string, error)
	EnableAutostart(appName, execPath string) error
	DisableAutostart(appName string) error
}

type platformService struct{}

// NewService returns a platform-specific implementation.
func NewService() Service {
	return &platformService{}
}

// GetConfigDir returns the OS-standard configuration directory.
func (service *platformService) GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err == nil && configDir != "" {
		return configDir, nil
	}

	homeDir, homeErr := os.UserHomeDir()
	if homeErr != nil {
		if err != nil {
			return "", fmt.Errorf("get config dir: %w", err)
		}
		return "", fmt.Errorf("get config dir: %w", homeErr)
	}

	return fallbackConfigDir(homeDir), nil
}

// SetAutostart enables or disables launching execPath at login.
func SetAutostart(service Service, appName, execPath string, enabled bool) error {
	if enabled {
		return service.EnableAutostart(appName, execPath)
	}
	return service.DisableAutostart(appName)
}

func checkAppName(appName string) error {
	if appName == "" {
		return errors.New("app name is empty")
	}
	return nil
}

func checkAutostartArgs(appName, execPath string) error {
	if err := checkAppName(appName); err != nil {
		return err
	}
	if execPath == "" {
		return errors.New("exec path is empty")
	}
	return nil
}

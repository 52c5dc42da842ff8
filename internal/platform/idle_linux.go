package platform

import (
	"fmt"
	"os/exec"
	"time"

	"focusflow/internal/core/timekeeper"
)

type idleChecker struct {
	xprintidlePath string
}

func newIdleChecker() timekeeper.IdleChecker {
	path, err := exec.LookPath("xprintidle")
	if err != nil {
		return unsupportedIdleChecker{}
	}
	return &idleChecker{xprintidlePath: path}
}

func (checker *idleChecker) IdleDuration() (time.Duration, error) {
	output, err := exec.Command(checker.xprintidlePath).Output()
	if err != nil {
		return 0, fmt.Errorf("xprintidle: %w", err)
	}
	return parseIdleMillis(string(output))
}

package platform

import (
	"fmt"
	"os/exec"
	"time"

	"focusflow/internal/core/timekeeper"
)

type idleChecker struct {
	ioregPath string
}

func newIdleChecker() timekeeper.IdleChecker {
	path, err := exec.LookPath("ioreg")
	if err != nil {
		return unsupportedIdleChecker{}
	}
	return &idleChecker{ioregPath: path}
}

func (checker *idleChecker) IdleDuration() (time.Duration, error) {
	output, err := exec.Command(checker.ioregPath, "-c", "IOHIDSystem", "-d", "4").Output()
	if err != nil {
		return 0, fmt.Errorf("ioreg: %w", err)
	}
	return parseHIDIdleTime(string(output))
}

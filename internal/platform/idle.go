package platform

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"focusflow/internal/core/timekeeper"
)

// NewIdleChecker returns the idle source of this OS. Where none exists the
// checker reports timekeeper.ErrIdleUnsupported.
func NewIdleChecker() timekeeper.IdleChecker {
	return newIdleChecker()
}

type unsupportedIdleChecker struct{}

func (unsupportedIdleChecker) IdleDuration() (time.Duration, error) {
	return 0, timekeeper.ErrIdleUnsupported
}

// parseIdleMillis reads the xprintidle output format.
func parseIdleMillis(output string) (time.Duration, error) {
	idleMillis, err := strconv.ParseInt(strings.TrimSpace(output), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse idle milliseconds: %w", err)
	}
	return time.Duration(max(idleMillis, 0)) * time.Millisecond, nil
}

// parseHIDIdleTime extracts HIDIdleTime, in nanoseconds, from ioreg output.
func parseHIDIdleTime(output string) (time.Duration, error) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, `"HIDIdleTime"`) {
			continue
		}
		_, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		nanos, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse HIDIdleTime: %w", err)
		}
		return time.Duration(max(nanos, 0)), nil
	}
	return 0, errors.New("HIDIdleTime not found")
}

package utils

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// EnsureVersion verifies that the running agent version satisfies the
// minimum version named by the configuration. An empty minimum accepts
// any agent.
func EnsureVersion(current, minimum string) error {
	if minimum == "" {
		return nil
	}

	cur, err := semver.NewVersion(current)
	if err != nil {
		return fmt.Errorf("invalid agent version %q: %w", current, err)
	}
	min, err := semver.NewVersion(minimum)
	if err != nil {
		return fmt.Errorf("invalid minimum version %q: %w", minimum, err)
	}

	if cur.LessThan(min) {
		return fmt.Errorf("agent version %s is older than the required minimum %s", current, minimum)
	}
	return nil
}

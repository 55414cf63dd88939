package collector

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Launch runs the collector binary with the given config file, wiring the
// child's stdio to ours. Blocks until the collector exits; the returned
// error is an *exec.ExitError when the collector itself failed, so the
// caller can propagate its exit code.
func Launch(ctx context.Context, binPath, configPath string) error {
	cmd := exec.CommandContext(ctx, binPath, "--config", configPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return err
		}
		return fmt.Errorf("launching collector %s: %w", binPath, err)
	}
	return nil
}

// ExitCode extracts the child's exit code from a Launch error, or 1 for
// errors that never reached the child.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if ee, ok := err.(*exec.ExitError); ok {
		return ee.ExitCode()
	}
	return 1
}

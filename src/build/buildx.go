package build

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// BuildError reports a failed buildx invocation with the engine's own
// diagnostic. A multi-platform build is all-or-nothing: any platform
// failing fails the whole step, buildx never emits a partial manifest.
type BuildError struct {
	Step       string
	Diagnostic string // tail of the engine's stderr
	Err        error
}

func (e *BuildError) Error() string {
	if e.Diagnostic != "" {
		return fmt.Sprintf("build %s: %v\n%s", e.Step, e.Err, e.Diagnostic)
	}
	return fmt.Sprintf("build %s: %v", e.Step, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// Buildx wraps docker buildx commands.
type Buildx struct {
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewBuildx creates a Buildx runner with default output writers.
func NewBuildx(verbose bool) *Buildx {
	return &Buildx{
		Verbose: verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Build executes a single build step via docker buildx. On failure the
// returned BuildError carries the tail of the engine's stderr so the
// operator sees the actual diagnostic, not just an exit code.
func (bx *Buildx) Build(ctx context.Context, step BuildStep) (*StepResult, error) {
	start := time.Now()
	result := &StepResult{
		Name: step.Name,
	}

	args := bx.buildArgs(step)

	if bx.Verbose {
		fmt.Fprintf(bx.Stderr, "exec: docker %s\n", strings.Join(args, " "))
	}

	var stderrBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdout = bx.Stdout
	cmd.Stderr = io.MultiWriter(bx.Stderr, &stderrBuf)

	if err := cmd.Run(); err != nil {
		result.Status = "failed"
		result.Duration = time.Since(start)
		result.Error = &BuildError{
			Step:       step.Name,
			Diagnostic: tail(stderrBuf.String(), 20),
			Err:        err,
		}
		return result, result.Error
	}

	result.Status = "success"
	result.Duration = time.Since(start)
	result.Images = step.Tags

	return result, nil
}

// buildArgs constructs the docker buildx build argument list.
func (bx *Buildx) buildArgs(step BuildStep) []string {
	args := []string{"buildx", "build"}

	if step.Dockerfile != "" {
		args = append(args, "--file", step.Dockerfile)
	}

	if step.Target != "" {
		args = append(args, "--target", step.Target)
	}

	if len(step.Platforms) > 0 {
		args = append(args, "--platform", strings.Join(step.Platforms, ","))
	}

	for k, v := range step.BuildArgs {
		args = append(args, "--build-arg", fmt.Sprintf("%s=%s", k, v))
	}

	for _, tag := range step.Tags {
		args = append(args, "--tag", tag)
	}

	switch {
	case step.Push:
		args = append(args, "--push")
	case step.Load:
		args = append(args, "--load")
	}

	buildContext := step.Context
	if buildContext == "" {
		buildContext = "."
	}
	args = append(args, buildContext)

	return args
}

// EnsureBuilder checks that a buildx builder is available and creates one
// if needed. Multi-platform builds need a docker-container driver.
func (bx *Buildx) EnsureBuilder(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "docker", "buildx", "inspect")
	if err := cmd.Run(); err != nil {
		create := exec.CommandContext(ctx, "docker", "buildx", "create", "--use", "--name", "castoff")
		create.Stdout = bx.Stderr
		create.Stderr = bx.Stderr
		if createErr := create.Run(); createErr != nil {
			return fmt.Errorf("creating buildx builder: %w", createErr)
		}
	}
	return nil
}

// tail returns the last n lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

package registry

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Publisher pushes image refs to remote registries. Pushes for independent
// tags run concurrently under a bounded semaphore; every tag gets its own
// result so partial failure is visible ref by ref.
type Publisher struct {
	Verbose     bool
	Concurrency int64
}

// NewPublisher returns a publisher with a sensible default parallelism.
func NewPublisher(verbose bool) *Publisher {
	return &Publisher{Verbose: verbose, Concurrency: 4}
}

// PushTags pushes every ref and returns a result per ref, in input order.
// The error is a *PublishError naming exactly the failed refs, or nil.
func (p *Publisher) PushTags(ctx context.Context, refs []string) ([]TagResult, error) {
	results := make([]TagResult, len(refs))

	limit := p.Concurrency
	if limit < 1 {
		limit = 1
	}
	sem := semaphore.NewWeighted(limit)
	var wg sync.WaitGroup

	for i, ref := range refs {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = TagResult{Ref: ref, Err: err}
			continue
		}
		wg.Add(1)
		go func(i int, ref string) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = p.pushOne(ctx, ref)
		}(i, ref)
	}
	wg.Wait()

	return results, publishErr(results)
}

func (p *Publisher) pushOne(ctx context.Context, ref string) TagResult {
	start := time.Now()

	cmd := exec.CommandContext(ctx, "docker", "push", ref)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return TagResult{
			Ref:      ref,
			Duration: time.Since(start),
			Err:      fmt.Errorf("docker push %s: %w: %s", ref, err, lastLine(stderr.String())),
		}
	}
	return TagResult{Ref: ref, Duration: time.Since(start)}
}

// VerifyTags confirms that every ref resolves in its registry. Used after a
// multi-platform build, where buildx pushes as part of the build and the
// per-tag outcome would otherwise be invisible.
func (p *Publisher) VerifyTags(ctx context.Context, refs []string) ([]TagResult, error) {
	results := make([]TagResult, len(refs))

	for i, ref := range refs {
		start := time.Now()
		cmd := exec.CommandContext(ctx, "docker", "buildx", "imagetools", "inspect", ref)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			results[i] = TagResult{
				Ref:      ref,
				Duration: time.Since(start),
				Err:      fmt.Errorf("inspect %s: %w: %s", ref, err, lastLine(stderr.String())),
			}
			continue
		}
		results[i] = TagResult{Ref: ref, Duration: time.Since(start)}
	}

	return results, publishErr(results)
}

// lastLine returns the final non-empty line of s — docker puts the reason
// there.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

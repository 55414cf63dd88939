// Package registry handles authentication against container registries and
// pushing tagged artifacts. Publishing reports a result per tag — a partial
// push (some tags up, some not) is surfaced explicitly, never collapsed
// into a single boolean.
package registry

import (
	"fmt"
	"strings"
	"time"
)

// AuthError reports a failed registry login. The credential itself never
// appears here — only the registry host and the engine diagnostic.
type AuthError struct {
	Registry   string
	Diagnostic string
	Err        error
}

func (e *AuthError) Error() string {
	if e.Diagnostic != "" {
		return fmt.Sprintf("login %s: %v: %s", e.Registry, e.Err, e.Diagnostic)
	}
	return fmt.Sprintf("login %s: %v", e.Registry, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TagResult is the outcome of publishing or verifying a single tag.
type TagResult struct {
	Ref      string
	Duration time.Duration
	Err      error
}

// PublishError reports which refs of a publish failed. Successful refs stay
// published — there is no rollback, the partial state is reported as-is.
type PublishError struct {
	Failed []string
	Total  int
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish: %d/%d tag(s) failed: %s",
		len(e.Failed), e.Total, strings.Join(e.Failed, ", "))
}

// publishErr builds a PublishError from per-tag results, or nil if all
// succeeded.
func publishErr(results []TagResult) error {
	var failed []string
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r.Ref)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &PublishError{Failed: failed, Total: len(results)}
}

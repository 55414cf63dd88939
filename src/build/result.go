package build

import "time"

// StepResult captures the outcome of a single build step.
type StepResult struct {
	Name     string
	Status   string   // "success", "failed"
	Images   []string // produced image references
	Duration time.Duration
	Error    error
}

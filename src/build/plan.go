package build

// BuildStep is a single buildx invocation. All tags and all platforms go
// into one invocation so the result is a single logical multi-platform
// artifact — buildx either produces every variant or fails the step.
type BuildStep struct {
	Name       string
	Dockerfile string
	Context    string
	Target     string
	Platforms  []string
	BuildArgs  map[string]string
	Tags       []string // fully qualified image refs
	Load       bool     // --load into daemon (single-platform only)
	Push       bool     // --push to registries
}

// IsMultiPlatform reports whether the step targets more than one platform.
// Multi-platform images can't be loaded into the local daemon.
func IsMultiPlatform(step BuildStep) bool {
	return len(step.Platforms) > 1
}

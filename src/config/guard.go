package config

// GuardConfig controls the pre-build credential leak scan of the build
// context. A leaked token baked into an image layer outlives every secret
// rotation, so the scan runs by default.
type GuardConfig struct {
	Enabled *bool    `yaml:"enabled"`
	Ignore  []string `yaml:"ignore"` // path prefixes to skip, relative to the context
}

// Active returns true unless the guard is explicitly disabled.
func (g GuardConfig) Active() bool {
	return g.Enabled == nil || *g.Enabled
}

// DefaultGuardConfig returns the guard defaults.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Ignore: []string{".git"},
	}
}

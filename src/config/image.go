package config

// ImageConfig holds container image build configuration.
type ImageConfig struct {
	Context    string            `yaml:"context"`
	Dockerfile string            `yaml:"dockerfile"`
	Target     string            `yaml:"target"`
	Platforms  []string          `yaml:"platforms"`
	BuildArgs  map[string]string `yaml:"build_args"`
	Registries []RegistryConfig  `yaml:"registries"`
}

// RegistryConfig defines a registry push target.
type RegistryConfig struct {
	URL string `yaml:"url"` // registry host, e.g. "docker.io"

	// Path is the namespace/image part of the reference. Tags are composed
	// as URL/Path:tag.
	Path string `yaml:"path"`

	// Tags are tag templates resolved against the manifest version:
	//   {version}        → "0.9.3"
	//   {major}.{minor}  → "0.9"
	//   latest           → "latest" (literal passthrough)
	Tags []string `yaml:"tags"`
}

// DefaultImageConfig returns sensible defaults for multi-platform builds.
func DefaultImageConfig() ImageConfig {
	return ImageConfig{
		Context:   ".",
		Platforms: []string{"linux/amd64", "linux/arm64"},
		BuildArgs: map[string]string{},
	}
}

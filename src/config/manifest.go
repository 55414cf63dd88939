package config

// ManifestConfig locates the project manifest the release version is read from.
type ManifestConfig struct {
	// Path to the manifest file. The file must contain a version = "X"
	// assignment — TOML manifests (pyproject.toml, Cargo.toml) are parsed
	// structurally, anything else falls back to line matching.
	Path string `yaml:"path"`
}

// DefaultManifestConfig returns the conventional manifest location.
func DefaultManifestConfig() ManifestConfig {
	return ManifestConfig{
		Path: "pyproject.toml",
	}
}

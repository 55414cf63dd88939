package config

// SecretsConfig selects the secret backend and names the credentials the
// pipeline needs. Values are resolved at run time and held in memory only;
// they never appear in config files or logs.
type SecretsConfig struct {
	// Provider picks the backend: "env" reads the uppercased reference as an
	// environment variable (the CI convention), "exec" shells out to an
	// external secret manager CLI once per reference.
	Provider string `yaml:"provider"`

	// Command is the argv template for the exec provider. The literal "{ref}"
	// is replaced with the external reference. Example:
	//
	//   command: ["gcloud", "secrets", "versions", "access", "{ref}"]
	Command []string `yaml:"command"`

	// Refs maps logical secret names to external store references, e.g.:
	//
	//   refs:
	//     registry_username: projects/1042/secrets/registry_username/versions/latest
	//     registry_token:    projects/1042/secrets/registry_token/versions/latest
	Refs map[string]string `yaml:"refs"`
}

// Logical secret names the pipeline resolves before authenticating.
const (
	SecretRegistryUsername = "registry_username"
	SecretRegistryToken    = "registry_token"
)

// DefaultSecretsConfig returns the env-backed defaults.
func DefaultSecretsConfig() SecretsConfig {
	return SecretsConfig{
		Provider: "env",
		Refs: map[string]string{
			SecretRegistryUsername: SecretRegistryUsername,
			SecretRegistryToken:    SecretRegistryToken,
		},
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Manifest.Path != "pyproject.toml" {
		t.Fatalf("default manifest path = %q", cfg.Manifest.Path)
	}
	if len(cfg.Image.Platforms) != 2 {
		t.Fatalf("default platforms = %v", cfg.Image.Platforms)
	}
	if !cfg.Guard.Active() {
		t.Fatal("guard should be active by default")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".castoff.yml")
	content := `
manifest:
  path: pyproject.toml
secrets:
  provider: exec
  command: ["gcloud", "secrets", "versions", "access", "{ref}"]
  refs:
    registry_username: projects/1042/secrets/registry_username/versions/latest
    registry_token: projects/1042/secrets/registry_token/versions/latest
image:
  dockerfile: Dockerfile
  platforms: [linux/amd64, linux/arm64]
  registries:
    - url: docker.io
      path: ns1/app
      tags: ["{version}", "latest"]
    - url: docker.io
      path: ns2/app
      tags: ["{version}", "latest"]
collector:
  endpoint_var: CLICKHOUSE_ENDPOINT
  password_var: CLICKHOUSE_PASSWORD
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Secrets.Provider != "exec" {
		t.Fatalf("provider = %q", cfg.Secrets.Provider)
	}
	if got := cfg.Secrets.Refs[SecretRegistryToken]; got != "projects/1042/secrets/registry_token/versions/latest" {
		t.Fatalf("token ref = %q", got)
	}
	if len(cfg.Image.Registries) != 2 {
		t.Fatalf("registries = %+v", cfg.Image.Registries)
	}
	if cfg.Image.Registries[1].Path != "ns2/app" {
		t.Fatalf("second registry path = %q", cfg.Image.Registries[1].Path)
	}
	// Unset sections keep their defaults.
	if cfg.Collector.Ports.OTLPGRPC != 4317 {
		t.Fatalf("collector grpc port = %d", cfg.Collector.Ports.OTLPGRPC)
	}
}

func TestGuardActive(t *testing.T) {
	off := false
	on := true

	if (GuardConfig{Enabled: &off}).Active() {
		t.Fatal("explicitly disabled guard reported active")
	}
	if !(GuardConfig{Enabled: &on}).Active() {
		t.Fatal("explicitly enabled guard reported inactive")
	}
	if !(GuardConfig{}).Active() {
		t.Fatal("unset guard should default to active")
	}
}

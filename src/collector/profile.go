// Package collector configures and launches the telemetry collector at
// container startup. Exactly one export profile is selected per process
// lifetime, from the presence of two environment values; nothing else
// influences the choice and no later transition occurs.
package collector

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"gitlab.prplanit.com/precisionplanit/castoff/src/config"
)

// ProfileKind is a named, mutually exclusive runtime configuration choice.
type ProfileKind string

const (
	// ProfileLocalFile exports telemetry to local files only.
	ProfileLocalFile ProfileKind = "local-file"
	// ProfileRemoteExport ships telemetry to an external aggregation backend.
	ProfileRemoteExport ProfileKind = "remote-export"
)

// SelectProfile picks the export profile. Pure: remote export if and only
// if both the endpoint and the password are present.
func SelectProfile(hasEndpoint, hasPassword bool) ProfileKind {
	if hasEndpoint && hasPassword {
		return ProfileRemoteExport
	}
	return ProfileLocalFile
}

// SelectFromEnv reads the configured env vars and selects the profile.
// Empty values count as absent.
func SelectFromEnv(cfg config.CollectorConfig) (ProfileKind, string, string) {
	endpoint := os.Getenv(cfg.EndpointVar)
	password := os.Getenv(cfg.PasswordVar)
	kind := SelectProfile(endpoint != "", password != "")
	return kind, endpoint, password
}

// RenderConfig produces the collector's YAML configuration for a profile.
// Both profiles listen on the two OTLP ingestion ports; the remote profile
// adds the external exporter, the local profile writes to a file.
func RenderConfig(kind ProfileKind, cfg config.CollectorConfig, endpoint, password string) ([]byte, error) {
	receivers := map[string]any{
		"otlp": map[string]any{
			"protocols": map[string]any{
				"grpc": map[string]any{"endpoint": fmt.Sprintf("0.0.0.0:%d", cfg.Ports.OTLPGRPC)},
				"http": map[string]any{"endpoint": fmt.Sprintf("0.0.0.0:%d", cfg.Ports.OTLPHTTP)},
			},
		},
	}

	exporters := map[string]any{
		"file": map[string]any{
			"path": filepath.Join(cfg.DataDir, "telemetry.json"),
		},
	}
	pipelineExporters := []string{"file"}

	if kind == ProfileRemoteExport {
		exporters["clickhouse"] = map[string]any{
			"endpoint": endpoint,
			"password": password,
			"database": "otel",
		}
		pipelineExporters = append(pipelineExporters, "clickhouse")
	}

	doc := map[string]any{
		"receivers": receivers,
		"exporters": exporters,
		"service": map[string]any{
			"pipelines": map[string]any{
				"traces": map[string]any{
					"receivers": []string{"otlp"},
					"exporters": pipelineExporters,
				},
				"metrics": map[string]any{
					"receivers": []string{"otlp"},
					"exporters": pipelineExporters,
				},
			},
		},
	}

	return yaml.Marshal(doc)
}

// WriteConfig renders the profile and writes it under cfg.ConfigDir.
// Returns the config file path. File mode is 0600 — the remote profile
// config carries the backend password.
func WriteConfig(kind ProfileKind, cfg config.CollectorConfig, endpoint, password string) (string, error) {
	data, err := RenderConfig(kind, cfg, endpoint, password)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(cfg.ConfigDir, 0o755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return "", fmt.Errorf("creating data dir: %w", err)
		}
	}

	path := filepath.Join(cfg.ConfigDir, fmt.Sprintf("config-%s.yaml", kind))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing collector config: %w", err)
	}
	return path, nil
}

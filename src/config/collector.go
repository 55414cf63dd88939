package config

// CollectorConfig drives the runtime configurator: where the telemetry
// collector binary lives, how to fetch it when missing, and which env vars
// select the export profile.
type CollectorConfig struct {
	// Release of the collector to install when the binary is absent.
	Version string `yaml:"version"`

	// InstallDir receives the extracted binary.
	InstallDir string `yaml:"install_dir"`

	// Binary is the executable name inside the release tarball.
	Binary string `yaml:"binary"`

	// DownloadURL is the tarball URL template. {version}, {os} and {arch}
	// are substituted at install time.
	DownloadURL string `yaml:"download_url"`

	// ConfigDir receives the rendered profile config.
	ConfigDir string `yaml:"config_dir"`

	// DataDir is where the file exporter writes when no remote backend is
	// configured.
	DataDir string `yaml:"data_dir"`

	// EndpointVar and PasswordVar name the env vars whose joint presence
	// selects the remote export profile.
	EndpointVar string `yaml:"endpoint_var"`
	PasswordVar string `yaml:"password_var"`

	Ports PortsConfig `yaml:"ports"`
}

// PortsConfig lists the ports the runtime exposes. The collector listens on
// the two OTLP ports; app and database are surfaced for operator reference in
// the rendered profile.
type PortsConfig struct {
	App      int `yaml:"app"`
	Database int `yaml:"database"`
	OTLPGRPC int `yaml:"otlp_grpc"`
	OTLPHTTP int `yaml:"otlp_http"`
}

// DefaultCollectorConfig returns collector defaults matching the stock
// otelcol-contrib release layout.
func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		Version:     "0.103.0",
		InstallDir:  ".castoff/collector",
		Binary:      "otelcol-contrib",
		DownloadURL: "https://github.com/open-telemetry/opentelemetry-collector-releases/releases/download/v{version}/otelcol-contrib_{version}_{os}_{arch}.tar.gz",
		ConfigDir:   ".castoff/collector",
		DataDir:     ".castoff/telemetry",
		EndpointVar: "CLICKHOUSE_ENDPOINT",
		PasswordVar: "CLICKHOUSE_PASSWORD",
		Ports: PortsConfig{
			App:      8283,
			Database: 5432,
			OTLPGRPC: 4317,
			OTLPHTTP: 4318,
		},
	}
}

package config

import "time"

// CurrentVersion is the config file format version
const CurrentVersion = 1

// Config represents the whole flood-predict configuration file.
type Config struct {
	Version    int              `yaml:"version"`
	Service    ServiceConfig    `yaml:"service"`
	Submission SubmissionConfig `yaml:"submission"`
	Web        WebConfig        `yaml:"web"`
	Discovery  DiscoveryConfig  `yaml:"discovery"`
	Logging    LoggingConfig    `yaml:"logging"`

	// Defaults overrides the initial value of individual indicators.
	Defaults map[string]float64 `yaml:"defaults,omitempty"`
}

// ServiceConfig locates the prediction service.
type ServiceConfig struct {
	BaseURL     string        `yaml:"base_url"`
	PredictPath string        `yaml:"predict_path"`
	SchemaPath  string        `yaml:"schema_path"`
	Timeout     time.Duration `yaml:"timeout"` // 0 disables the timeout
}

// SubmissionConfig controls overlapping submissions.
type SubmissionConfig struct {
	Policy string `yaml:"policy"` // last-sent-wins, reject-while-pending, last-resolved-wins
}

// WebConfig configures the browser form server.
type WebConfig struct {
	Listen     string        `yaml:"listen"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	Advertise  bool          `yaml:"advertise"` // announce the form over mDNS
	CertFile   string        `yaml:"cert_file,omitempty"`
	KeyFile    string        `yaml:"key_file,omitempty"`
}

// DiscoveryConfig configures mDNS lookups of prediction services.
type DiscoveryConfig struct {
	ServiceType string        `yaml:"service_type"`
	Timeout     time.Duration `yaml:"timeout"`
}

// LoggingConfig configures zap output.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // empty keeps logging silent
	File  string `yaml:"file,omitempty"`  // used by the terminal form
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Service: ServiceConfig{
			BaseURL:     "http://127.0.0.1:8000",
			PredictPath: "/predict",
			SchemaPath:  "/openapi.json",
			Timeout:     30 * time.Second,
		},
		Submission: SubmissionConfig{
			Policy: "last-sent-wins",
		},
		Web: WebConfig{
			Listen:     "127.0.0.1:8080",
			SessionTTL: 30 * time.Minute,
		},
		Discovery: DiscoveryConfig{
			ServiceType: "_floodpredict._tcp",
			Timeout:     5 * time.Second,
		},
	}
}

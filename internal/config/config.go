package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Ahlyab/flood-prediction/internal/indicators"
	"github.com/Ahlyab/flood-prediction/internal/submission"
)

const (
	appName    = "flood-predict"
	configFile = "config.yaml"

	// EnvBaseURL overrides service.base_url
	EnvBaseURL = "FLOOD_PREDICT_URL"
	// EnvLogLevel overrides logging.level
	EnvLogLevel = "FLOOD_LOG_LEVEL"
	// EnvListen overrides web.listen
	EnvListen = "FLOOD_WEB_LISTEN"
)

// Mutex for thread-safe file operations
var fileMutex sync.Mutex

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/flood-predict or $HOME/.config/flood-predict
//   - macOS: $HOME/.config/flood-predict (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\flood-predict
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Load reads the configuration at path and applies environment overrides.
// An empty path selects GetConfigPath. A missing file yields DefaultConfig.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	cfg, err := loadFromDisk(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func loadFromDisk(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start from defaults so omitted sections keep sensible values
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version: %d (expected %d)", cfg.Version, CurrentVersion)
	}

	return cfg, nil
}

// applyEnvOverrides lets the environment win over the file
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.Service.BaseURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvListen); v != "" {
		c.Web.Listen = v
	}
}

// Validate checks every field a command depends on.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Service.BaseURL)
	if err != nil {
		return fmt.Errorf("service.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("service.base_url: scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("service.base_url: missing host")
	}
	if !strings.HasPrefix(c.Service.PredictPath, "/") {
		return fmt.Errorf("service.predict_path must start with '/', got %q", c.Service.PredictPath)
	}
	if c.Service.Timeout < 0 {
		return fmt.Errorf("service.timeout must not be negative")
	}
	if _, err := submission.ParsePolicy(c.Submission.Policy); err != nil {
		return fmt.Errorf("submission.policy: %w", err)
	}
	if c.Web.SessionTTL < 0 {
		return fmt.Errorf("web.session_ttl must not be negative")
	}
	if (c.Web.CertFile == "") != (c.Web.KeyFile == "") {
		return fmt.Errorf("web.cert_file and web.key_file must be set together")
	}
	if c.Discovery.Timeout < 0 {
		return fmt.Errorf("discovery.timeout must not be negative")
	}

	var unknown []string
	for name := range c.Defaults {
		if !indicators.IsKnown(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("defaults: unknown indicators: %s", strings.Join(unknown, ", "))
	}

	return nil
}

// Policy returns the parsed submission policy
func (c *Config) Policy() submission.Policy {
	p, _ := submission.ParsePolicy(c.Submission.Policy)
	return p
}

// InitialForm returns the default form with configured overrides applied
func (c *Config) InitialForm() indicators.FormValues {
	form, _ := indicators.Defaults().WithOverrides(c.Defaults)
	return form
}

// Save writes the configuration to path atomically.
// An empty path selects GetConfigPath.
func (c *Config) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# flood-predict configuration file
#
# service.base_url is the prediction service root; FLOOD_PREDICT_URL
# overrides it. service.timeout of 0 waits forever.
#
# Location: ` + path + `

`)
	data = append(header, data...)

	// Write to temporary file first (atomic write)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// Marshal returns the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/Ahlyab/flood-prediction/internal/submission"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "flood-predict") {
		t.Errorf("GetConfigDir() = %v, should contain 'flood-predict'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("macOS config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)

	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if dir != filepath.Join(tmp, "flood-predict") {
		t.Errorf("GetConfigDir() = %s, want %s", dir, filepath.Join(tmp, "flood-predict"))
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.Service.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("BaseURL = %s, want http://127.0.0.1:8000", cfg.Service.BaseURL)
	}
	if cfg.Service.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Service.Timeout)
	}
	if cfg.Policy() != submission.LastSentWins {
		t.Errorf("Policy() = %v, want last-sent-wins", cfg.Policy())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv(EnvBaseURL, "")
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Web.Listen != "127.0.0.1:8080" {
		t.Errorf("Listen = %s, want default", cfg.Web.Listen)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvListen, "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Service.BaseURL = "http://predict.internal:9000"
	cfg.Service.Timeout = 5 * time.Second
	cfg.Submission.Policy = "reject-while-pending"
	cfg.Defaults = map[string]float64{"Urbanization": 4.5}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should be removed after save")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Service.BaseURL != "http://predict.internal:9000" {
		t.Errorf("BaseURL = %s", loaded.Service.BaseURL)
	}
	if loaded.Service.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", loaded.Service.Timeout)
	}
	if loaded.Policy() != submission.RejectWhilePending {
		t.Errorf("Policy() = %v, want reject-while-pending", loaded.Policy())
	}
	if got := loaded.InitialForm().Value("Urbanization"); got != "4.5" {
		t.Errorf("InitialForm Urbanization = %q, want 4.5", got)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Setenv(EnvBaseURL, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "version: 1\nservice:\n  base_url: http://10.0.0.2:8000\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.BaseURL != "http://10.0.0.2:8000" {
		t.Errorf("BaseURL = %s", cfg.Service.BaseURL)
	}
	if cfg.Service.PredictPath != "/predict" {
		t.Errorf("PredictPath = %q, want default /predict", cfg.Service.PredictPath)
	}
	if cfg.Web.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL = %v, want default 30m", cfg.Web.SessionTTL)
	}
}

func TestLoad_RejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 7\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() should fail for an unsupported version")
	}
}

func TestLoad_RejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("service: [unterminated\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() should fail for malformed YAML")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad scheme", func(c *Config) { c.Service.BaseURL = "ftp://host" }},
		{"no host", func(c *Config) { c.Service.BaseURL = "http://" }},
		{"relative path", func(c *Config) { c.Service.PredictPath = "predict" }},
		{"negative timeout", func(c *Config) { c.Service.Timeout = -time.Second }},
		{"unknown policy", func(c *Config) { c.Submission.Policy = "first-wins" }},
		{"negative ttl", func(c *Config) { c.Web.SessionTTL = -1 }},
		{"cert without key", func(c *Config) { c.Web.CertFile = "server.crt" }},
		{"unknown default", func(c *Config) { c.Defaults = map[string]float64{"Rainfall": 1} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

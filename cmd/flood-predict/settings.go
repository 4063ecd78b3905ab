package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ahlyab/flood-prediction/internal/config"
	"github.com/Ahlyab/flood-prediction/internal/discovery"
	"github.com/Ahlyab/flood-prediction/internal/logging"
	"github.com/Ahlyab/flood-prediction/internal/predict"
	"github.com/Ahlyab/flood-prediction/internal/submission"
	"github.com/Ahlyab/flood-prediction/internal/ui"
)

// logOutput selects where zap writes for a command
type logOutput int

const (
	// logToStderr keeps stdout clean for command output
	logToStderr logOutput = iota
	// logToFile writes to logging.file only, so a full-screen UI is not torn
	logToFile
)

// loadSettings reads the config file and applies flag overrides on top of
// the environment, then starts logging.
func loadSettings(cmd *cobra.Command, output logOutput) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if serviceURL != "" {
		cfg.Service.BaseURL = serviceURL
	}
	if flags.Changed("timeout") {
		cfg.Service.Timeout = timeout
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if policyName != "" {
		cfg.Submission.Policy = policyName
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := initLogging(cfg, output); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initLogging(cfg *config.Config, output logOutput) error {
	switch output {
	case logToFile:
		if cfg.Logging.File == "" {
			// nothing may reach the terminal while the form owns it
			logging.SetLogger(nil)
			return nil
		}
		return logging.InitializeWithOutput(levelOrDefault(cfg.Logging.Level), cfg.Logging.File)
	default:
		return logging.InitializeWithOutput(cfg.Logging.Level, "stderr")
	}
}

// levelOrDefault turns on info logging when a log file is configured
// without a level
func levelOrDefault(level string) string {
	if level == "" {
		return "info"
	}
	return level
}

// newClient builds the prediction client described by cfg
func newClient(cfg *config.Config) *predict.Client {
	client := predict.NewClient(cfg.Service.BaseURL)
	client.PredictPath = cfg.Service.PredictPath
	client.SchemaPath = cfg.Service.SchemaPath
	client.SetTimeout(cfg.Service.Timeout)
	return client
}

// newController builds a controller submitting to p with the configured
// policy and initial form
func newController(cfg *config.Config, p submission.Predictor) *submission.Controller {
	return submission.New(p,
		submission.WithPolicy(cfg.Policy()),
		submission.WithInitialForm(cfg.InitialForm()),
	)
}

// clientForService points a copy of the configured client at svc
func clientForService(cfg *config.Config, svc *discovery.Service) *predict.Client {
	client := newClient(cfg)
	client.BaseURL = svc.BaseURL()
	if path := svc.PredictPath(); path != "" {
		client.PredictPath = path
	}
	return client
}

// newScanner builds an mDNS scanner from cfg
func newScanner(cfg *config.Config) *discovery.Scanner {
	scanner := discovery.NewScanner()
	if cfg.Discovery.Timeout > 0 {
		scanner.Timeout = cfg.Discovery.Timeout
	}
	if cfg.Discovery.ServiceType != "" {
		scanner.ServiceType = cfg.Discovery.ServiceType
	}
	return scanner
}

// isInteractive reports whether stdin and out are both terminals
func isInteractive(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return ui.IsTerminal(os.Stdin) && ui.IsTerminal(f)
}

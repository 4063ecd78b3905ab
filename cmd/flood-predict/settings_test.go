package main

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/Ahlyab/flood-prediction/internal/config"
	"github.com/Ahlyab/flood-prediction/internal/logging"
)

func TestInitLogging_FormWithoutFileIsSilent(t *testing.T) {
	t.Setenv(logging.LogLevelEnvVar, "debug")
	t.Cleanup(func() { logging.SetLogger(nil) })

	cfg := config.DefaultConfig()
	cfg.Logging.Level = "debug"
	cfg.Logging.File = ""

	if err := initLogging(cfg, logToFile); err != nil {
		t.Fatalf("initLogging() error = %v", err)
	}
	if logging.GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("the terminal form must not log to the screen without a log file")
	}
}

func TestInitLogging_FormWritesToFile(t *testing.T) {
	t.Cleanup(func() { logging.SetLogger(nil) })

	cfg := config.DefaultConfig()
	cfg.Logging.Level = ""
	cfg.Logging.File = t.TempDir() + "/flood.log"

	if err := initLogging(cfg, logToFile); err != nil {
		t.Fatalf("initLogging() error = %v", err)
	}
	if !logging.GetLogger().Core().Enabled(zapcore.InfoLevel) {
		t.Error("a configured log file should enable info logging")
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggingPrepare_File(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "run.log")
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "normal", Destination: dest, Mode: "overwrite"},
	}

	log, err := conf.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Debug("hidden message")
	log.Info("visible message")
	_ = log.Sync()

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("unable to read log: %v", err)
	}
	if !strings.Contains(string(data), "visible message") {
		t.Errorf("log does not contain info message:\n%s", data)
	}
	if strings.Contains(string(data), "hidden message") {
		t.Errorf("log contains debug message at normal level:\n%s", data)
	}
}

func TestLoggingPrepare_ReportForcesDebug(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "run.log")
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "none", Destination: dest},
	}
	rpt := &Report{entries: make(map[string]entry)}

	log, err := conf.Prepare(rpt)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Debug("debug message")
	_ = log.Sync()

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("unable to read log: %v", err)
	}
	if !strings.Contains(string(data), "debug message") {
		t.Errorf("report must force debug file log:\n%s", data)
	}
	if _, ok := rpt.entries["final.log"]; !ok {
		t.Error("log file is not stored in the report")
	}
	if e, ok := rpt.entries["panic.log"]; !ok || e.original != PanicLogName(dest) {
		t.Errorf("panic log entry = %+v", e)
	}
}

func TestLoggingPrepare_Nothing(t *testing.T) {
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "none"},
	}
	log, err := conf.Prepare(nil)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Info("goes nowhere")
}

package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level to be Info, got %s", cfg.Level)
	}

	if cfg.Pretty != false {
		t.Error("Expected default pretty to be false")
	}
}

func TestSetup_WritesToConfiguredOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelInfo, Output: buf})

	logger.Info().Msg("collector starting")

	if !strings.Contains(buf.String(), "collector starting") {
		t.Errorf("Expected output to contain message, got %q", buf.String())
	}
}

func TestSetup_FiltersBelowLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := Setup(Config{Level: LevelWarn, Output: buf})

	logger.Info().Msg("should be filtered")
	logger.Warn().Msg("should appear")

	output := buf.String()
	if strings.Contains(output, "should be filtered") {
		t.Error("Expected info message to be filtered at warn level")
	}
	if !strings.Contains(output, "should appear") {
		t.Error("Expected warn message to appear")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    LogLevel
		expected zerolog.Level
	}{
		{name: "debug", level: LevelDebug, expected: zerolog.DebugLevel},
		{name: "info", level: LevelInfo, expected: zerolog.InfoLevel},
		{name: "warn", level: LevelWarn, expected: zerolog.WarnLevel},
		{name: "warning alias", level: "warning", expected: zerolog.WarnLevel},
		{name: "error", level: LevelError, expected: zerolog.ErrorLevel},
		{name: "unknown defaults to info", level: "verbose", expected: zerolog.InfoLevel},
		{name: "mixed case", level: "DEBUG", expected: zerolog.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseLevel(tt.level); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.level, got, tt.expected)
			}
		})
	}
}

func TestNewLogger_AddsComponentField(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Output: buf})

	logger := NewLogger("scheduler")
	logger.Info().Msg("component log")

	output := buf.String()
	if !strings.Contains(output, `"component":"scheduler"`) {
		t.Errorf("Expected component field in output, got %q", output)
	}
}

func TestDebugFileCapture(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Output: buf})
	dir := t.TempDir()

	if DebugFileEnabled() {
		t.Fatal("Expected debug capture to start disabled")
	}

	path, err := EnableDebugFile(dir)
	if err != nil {
		t.Fatalf("EnableDebugFile() error: %v", err)
	}
	if path == "" {
		t.Fatal("Expected a debug file path")
	}
	if !DebugFileEnabled() {
		t.Error("Expected DebugFileEnabled() to be true")
	}
	if DebugFilePath() != path {
		t.Errorf("DebugFilePath() = %q, want %q", DebugFilePath(), path)
	}

	// Enabling again keeps the same file.
	again, err := EnableDebugFile(dir)
	if err != nil {
		t.Fatalf("EnableDebugFile() second call error: %v", err)
	}
	if again != path {
		t.Errorf("Expected same path on double enable, got %q and %q", path, again)
	}

	log.Info().Msg("captured to file")

	if err := DisableDebugFile(); err != nil {
		t.Fatalf("DisableDebugFile() error: %v", err)
	}
	if DebugFileEnabled() {
		t.Error("Expected DebugFileEnabled() to be false after disable")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read debug file: %v", err)
	}
	if !strings.Contains(string(data), "captured to file") {
		t.Errorf("Expected debug file to contain the log line, got %q", string(data))
	}
	if !strings.Contains(buf.String(), "captured to file") {
		t.Error("Expected base output to still receive the log line")
	}

	// Disabling when already disabled is a no-op.
	if err := DisableDebugFile(); err != nil {
		t.Errorf("DisableDebugFile() on disabled state error: %v", err)
	}
}

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Debug file capture tees the global logger into a timestamped log file.
// It can be enabled and disabled at runtime, e.g. from a web UI toggle.
var debugState struct {
	mu         sync.Mutex
	baseWriter io.Writer
	file       *os.File
	path       string
}

// setBaseWriter records the writer Setup configured, so debug capture can
// restore it when disabled.
func setBaseWriter(w io.Writer) {
	debugState.mu.Lock()
	defer debugState.mu.Unlock()
	debugState.baseWriter = w
}

// EnableDebugFile starts mirroring all log output into a new timestamped
// file under dir, creating dir if needed. Returns the file path.
// Enabling twice is a no-op that returns the current path.
func EnableDebugFile(dir string) (string, error) {
	debugState.mu.Lock()
	defer debugState.mu.Unlock()

	if debugState.file != nil {
		return debugState.path, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create log directory: %w", err)
	}

	stamp := strings.ReplaceAll(time.Now().UTC().Format("2006-01-02T15-04-05"), ":", "-")
	path := filepath.Join(dir, fmt.Sprintf("debug-%s.log", stamp))

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("open debug log file: %w", err)
	}

	base := debugState.baseWriter
	if base == nil {
		base = os.Stderr
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(base, file)).With().Timestamp().Logger()
	debugState.file = file
	debugState.path = path

	log.Info().Str("path", path).Msg("Debug log capture enabled")
	return path, nil
}

// DisableDebugFile stops mirroring log output and closes the current file.
// Disabling when not enabled is a no-op.
func DisableDebugFile() error {
	debugState.mu.Lock()
	defer debugState.mu.Unlock()

	if debugState.file == nil {
		return nil
	}

	log.Info().Str("path", debugState.path).Msg("Debug log capture disabled")

	base := debugState.baseWriter
	if base == nil {
		base = os.Stderr
	}
	log.Logger = zerolog.New(base).With().Timestamp().Logger()

	err := debugState.file.Close()
	debugState.file = nil
	debugState.path = ""
	if err != nil {
		return fmt.Errorf("close debug log file: %w", err)
	}
	return nil
}

// DebugFileEnabled reports whether debug capture is currently active.
func DebugFileEnabled() bool {
	debugState.mu.Lock()
	defer debugState.mu.Unlock()
	return debugState.file != nil
}

// DebugFilePath returns the active debug log file path, or "" when disabled.
func DebugFilePath() string {
	debugState.mu.Lock()
	defer debugState.mu.Unlock()
	return debugState.path
}

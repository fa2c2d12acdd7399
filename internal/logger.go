package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mama165/sdk-go/logs"
)

// NewLogger builds the process logger. Line mode logs like every other
// command; the TUI owns the terminal, so its records go to file instead.
// Both modes read LOG_LEVEL the same way, unknown values mean info.
// The returned func releases the file, if any.
func NewLogger(level, file string, toFile bool) (*slog.Logger, func() error, error) {
	if !toFile {
		return logs.GetLoggerFromString(level), func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: logs.GetLevelFromString(level)})
	return slog.New(handler), f.Close, nil
}

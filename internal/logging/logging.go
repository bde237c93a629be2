package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schemafuzz/schemafuzz/internal/config"
)

// Setup initializes the logger with file output, plus stderr unless quiet.
// stdout is left alone so generated SQL can be piped.
func Setup(level, directory string, quiet bool) (*slog.Logger, error) {
	if directory == "" {
		directory = config.ExpandHome("~/.schemafuzz/logs/")
	} else {
		directory = config.ExpandHome(directory)
	}

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	filename := fmt.Sprintf("schemafuzz-%s.log", time.Now().Format("2006-01-02"))
	logPath := filepath.Join(directory, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	var writer io.Writer = file
	if !quiet {
		writer = io.MultiWriter(os.Stderr, file)
	}
	return New(writer, level), nil
}

// New returns a text logger writing to w at the given level.
func New(w io.Writer, level string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return New(io.Discard, "error")
}

// ParseLevel maps debug, warn and error to their slog levels and anything
// else to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Package obs provides structured, leveled logging for trenchsniperd.
package obs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents logging verbosity.
type Level int

// Log level constants.
const (
	LevelOff Level = iota
	LevelError
	LevelDebug
)

// ParseLevel parses a level string, defaulting to LevelError on anything
// unrecognized.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return LevelOff
	case "error":
		return LevelError
	case "debug":
		return LevelDebug
	default:
		return LevelError
	}
}

// String returns the string representation of a level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelDebug:
		return "debug"
	case LevelError:
		return "error"
	default:
		return "error"
	}
}

// Logger writes structured log lines to a file only; nothing is written
// to stderr.
type Logger struct {
	mu       sync.Mutex
	level    Level
	file     *os.File
	filePath string
	slogger  *slog.Logger
	json     bool
}

// New creates a logger that writes to filePath at the given level. A
// nil-equivalent Logger (NullLogger) is returned if level is LevelOff or
// filePath is empty.
func New(level Level, filePath string) (*Logger, error) {
	l := &Logger{level: level, filePath: filePath}

	if level == LevelOff || filePath == "" {
		return l, nil
	}

	if strings.HasPrefix(filePath, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		filePath = filepath.Join(home, filePath[2:])
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}

	//nolint:gosec // G304: path derives from validated configuration, not request input
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	l.file = f
	l.filePath = filePath
	l.initSlogger()

	return l, nil
}

// NullLogger returns a Logger that discards all output.
func NullLogger() *Logger {
	return &Logger{level: LevelOff}
}

func (l *Logger) initSlogger() {
	if l.file == nil {
		return
	}

	opts := &slog.HandlerOptions{Level: l.slogLevel()}

	var handler slog.Handler
	if l.json {
		handler = slog.NewJSONHandler(l.file, opts)
	} else {
		handler = slog.NewTextHandler(l.file, opts)
	}
	l.slogger = slog.New(handler)
}

func (l *Logger) slogLevel() slog.Level {
	switch l.level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelOff, LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetJSON toggles JSON-formatted output. Call before logging starts.
func (l *Logger) SetJSON(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.json = enabled
	l.initSlogger()
}

// Structured returns a slog.Logger for attribute-based logging, or nil if
// logging is disabled.
func (l *Logger) Structured() *slog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slogger
}

// Debug logs a debug message with structured attributes.
func (l *Logger) Debug(msg string, attrs ...slog.Attr) {
	l.emit(slog.LevelDebug, LevelDebug, msg, attrs...)
}

// Error logs an error message with structured attributes.
func (l *Logger) Error(msg string, attrs ...slog.Attr) {
	l.emit(slog.LevelError, LevelError, msg, attrs...)
}

func (l *Logger) emit(slvl slog.Level, threshold Level, msg string, attrs ...slog.Attr) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.level == LevelOff || l.level < threshold || l.slogger == nil {
		return
	}
	l.slogger.LogAttrs(context.Background(), slvl, msg, attrs...)
}

// Printf logs a formatted message at error level without structured
// attributes — used by call sites that have a message but no attrs yet.
func (l *Logger) Printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.level == LevelOff || l.file == nil {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	_, _ = fmt.Fprintf(l.file, "%s [%s] %s\n", timestamp, strings.ToUpper(LevelError.String()), fmt.Sprintf(format, args...))
}

// Writer returns an io.Writer that writes lines to the logger at error level.
func (l *Logger) Writer() io.Writer {
	return &logWriter{logger: l}
}

// Close closes the underlying log file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// SetLevel changes the active level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the active level.
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

type logWriter struct {
	logger *Logger
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.logger.Printf("%s", strings.TrimSpace(string(p)))
	return len(p), nil
}

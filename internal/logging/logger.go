package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Log levels accepted by NewLogger.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// LogFile is the name of the log written inside a run directory.
const LogFile = "solve.log"

// Logger is a slog logger with persistent attributes.
type Logger struct {
	logger *slog.Logger
	file   *os.File
	mu     *sync.Mutex
	attrs  []slog.Attr
}

// NewLogger creates a logger writing JSON to {runDir}/solve.log, or text to
// stderr when runDir is empty. Unknown levels fall back to INFO.
func NewLogger(runDir string, level string) (*Logger, error) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if runDir == "" {
		return &Logger{
			logger: slog.New(slog.NewTextHandler(os.Stderr, opts)),
			mu:     &sync.Mutex{},
		}, nil
	}

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	file, err := os.OpenFile(filepath.Join(runDir, LogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &Logger{
		logger: slog.New(slog.NewJSONHandler(file, opts)),
		file:   file,
		mu:     &sync.Mutex{},
	}, nil
}

// New wraps an existing writer, mainly for tests and the TUI.
func New(w io.Writer, level string) *Logger {
	return &Logger{
		logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})),
		mu:     &sync.Mutex{},
	}
}

// NopLogger returns a Logger that discards everything.
func NopLogger() *Logger {
	return New(io.Discard, LevelError)
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel normalises a level string, returning LevelInfo when unknown.
func ParseLevel(level string) string {
	switch l := strings.ToUpper(level); l {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return l
	default:
		return LevelInfo
	}
}

// ValidLevels lists the accepted level strings.
func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}

// WithPhase returns a child logger tagged with a solver phase.
func (l *Logger) WithPhase(phase string) *Logger {
	return l.withAttrs(slog.String("phase", phase))
}

// With returns a child logger with extra key-value attributes.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}
	attrs := make([]slog.Attr, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, slog.Any(key, args[i+1]))
	}
	return l.withAttrs(attrs...)
}

func (l *Logger) withAttrs(attrs ...slog.Attr) *Logger {
	merged := make([]slog.Attr, 0, len(l.attrs)+len(attrs))
	merged = append(merged, l.attrs...)
	merged = append(merged, attrs...)
	return &Logger{logger: l.logger, file: l.file, mu: l.mu, attrs: merged}
}

func (l *Logger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

// Enabled reports whether entries at level would be written.
func (l *Logger) Enabled(level slog.Level) bool {
	return l.logger.Enabled(context.Background(), level)
}

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	all := make([]any, 0, len(l.attrs)+len(args))
	for _, a := range l.attrs {
		all = append(all, a)
	}
	all = append(all, args...)
	l.logger.Log(context.Background(), level, msg, all...)
}

// Close syncs and closes the log file. It is a no-op for stderr loggers.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	l.file = nil
	return nil
}

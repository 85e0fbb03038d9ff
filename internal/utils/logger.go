package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Logger provides leveled logging with verbose mode support.
// Verbose mode forces debug level regardless of the configured level.
type Logger struct {
	mu      sync.RWMutex
	verbose bool
	level   log.Level
	out     io.Writer
	base    *log.Logger
}

var (
	loggerInstance *Logger
	once           sync.Once
)

// GetLogger returns the singleton logger instance.
func GetLogger() *Logger {
	once.Do(func() {
		loggerInstance = newLogger(os.Stderr)
	})
	return loggerInstance
}

func newLogger(w io.Writer) *Logger {
	return &Logger{
		level: log.InfoLevel,
		out:   w,
		base: log.NewWithOptions(w, log.Options{
			Level:  log.InfoLevel,
			Prefix: "todoui",
		}),
	}
}

// SetVerboseMode sets the verbose mode globally.
func SetVerboseMode(verbose bool) {
	GetLogger().SetVerbose(verbose)
}

// SetVerbose sets the verbose mode for this logger instance.
func (l *Logger) SetVerbose(verbose bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = verbose
	l.applyLevel()
}

// IsVerbose returns whether verbose mode is enabled.
func (l *Logger) IsVerbose() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.verbose
}

// SetLevel sets the minimum level from a config string (debug, info, warn, error).
func (l *Logger) SetLevel(level string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = ParseLogLevel(level)
	l.applyLevel()
}

// SetFormat selects the output format (text, json, logfmt).
func (l *Logger) SetFormat(format string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.base.SetFormatter(ParseLogFormatter(format))
}

// SetOutput redirects log output.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
	l.base.SetOutput(w)
}

// applyLevel must be called with l.mu held.
func (l *Logger) applyLevel() {
	if l.verbose {
		l.base.SetLevel(log.DebugLevel)
		return
	}
	l.base.SetLevel(l.level)
}

// With returns a structured child logger carrying the given key/value pairs.
func (l *Logger) With(keyvals ...interface{}) *log.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.base.With(keyvals...)
}

// formatMessage formats a message with optional printf-style arguments.
func formatMessage(msgOrFormat string, args ...interface{}) string {
	if len(args) > 0 {
		return fmt.Sprintf(msgOrFormat, args...)
	}
	return msgOrFormat
}

// Debug logs a debug message (only shown when verbose or level=debug).
// Can be used with a simple message or printf-style format string with args.
func (l *Logger) Debug(msgOrFormat string, args ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.base.Debug(formatMessage(msgOrFormat, args...))
}

// Info logs an info message.
func (l *Logger) Info(msgOrFormat string, args ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.base.Info(formatMessage(msgOrFormat, args...))
}

// Warn logs a warning message.
func (l *Logger) Warn(msgOrFormat string, args ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.base.Warn(formatMessage(msgOrFormat, args...))
}

// Error logs an error message.
func (l *Logger) Error(msgOrFormat string, args ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.base.Error(formatMessage(msgOrFormat, args...))
}

// Debugf is a convenience function that logs a debug message using the global logger.
func Debugf(format string, args ...interface{}) {
	GetLogger().Debug(format, args...)
}

// Infof is a convenience function that logs an info message using the global logger.
func Infof(format string, args ...interface{}) {
	GetLogger().Info(format, args...)
}

// Warnf is a convenience function that logs a warning message using the global logger.
func Warnf(format string, args ...interface{}) {
	GetLogger().Warn(format, args...)
}

// Errorf is a convenience function that logs an error message using the global logger.
func Errorf(format string, args ...interface{}) {
	GetLogger().Error(format, args...)
}

// ParseLogLevel parses a config level string. Unknown values map to info.
func ParseLogLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ParseLogFormatter parses a config format string. Unknown values map to text.
func ParseLogFormatter(format string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// FileSink is a log file opened by RedirectToFile.
type FileSink struct {
	logger   *Logger
	file     *os.File
	previous io.Writer
	path     string
}

// RedirectToFile sends the logger's output to path (appending) until the
// returned sink is closed. Used while the TUI owns the terminal.
func (l *Logger) RedirectToFile(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l.mu.RLock()
	previous := l.out
	l.mu.RUnlock()

	l.SetOutput(file)
	return &FileSink{logger: l, file: file, previous: previous, path: path}, nil
}

// Path returns the log file path.
func (s *FileSink) Path() string {
	return s.path
}

// Close restores the previous output and closes the file.
func (s *FileSink) Close() error {
	if s.file == nil {
		return nil
	}
	s.logger.SetOutput(s.previous)
	err := s.file.Close()
	s.file = nil
	return err
}

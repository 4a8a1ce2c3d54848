// Package logging provides component loggers for the dustat pipeline with
// a size-capped file sink and an optional console sink.
//
// Basic usage:
//
//	cfg := logging.Config{
//	    Level: "info",
//	    Path:  logging.DefaultLogPath(),
//	}
//	if err := logging.Init(cfg); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Close()
//
//	logger := logging.Get("scan")
//	logger.Info("scan started", "root", "/srv/data")
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level represents a logging level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a string into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// toCharmLevel converts a Level to a charmbracelet/log level.
func (l Level) toCharmLevel() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the log level (debug, info, warn, error).
	Level string

	// Path is the log file path. Empty uses DefaultLogPath().
	Path string

	// MaxLogSize caps the live log file in bytes before it is rolled
	// into the backup chain. Zero uses DefaultMaxLogSize.
	MaxLogSize int64

	// LogBackups is the backup chain length. Zero uses
	// DefaultLogBackups.
	LogBackups int

	// ConsoleLevel enables console output at the specified level.
	// Empty string disables console output.
	ConsoleLevel string
}

// Logger wraps charmbracelet/log with component identification. It writes
// to the shared file sink and, when configured, mirrors to stderr.
type Logger struct {
	file    *log.Logger // writes to the log file (io.Discard before Init)
	console *log.Logger // optional stderr sink
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.file.Debug(msg, args...)
	if l.console != nil {
		l.console.Debug(msg, args...)
	}
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.file.Info(msg, args...)
	if l.console != nil {
		l.console.Info(msg, args...)
	}
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.file.Warn(msg, args...)
	if l.console != nil {
		l.console.Warn(msg, args...)
	}
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.file.Error(msg, args...)
	if l.console != nil {
		l.console.Error(msg, args...)
	}
}

// With returns a new logger with additional context.
func (l *Logger) With(args ...interface{}) *Logger {
	newLogger := &Logger{file: l.file.With(args...)}
	if l.console != nil {
		newLogger.console = l.console.With(args...)
	}
	return newLogger
}

// registry is the process-wide logger registry. A single mutex guards it;
// logger creation is rare and never on a hot path.
type registry struct {
	mu           sync.Mutex
	ready        bool
	writer       *LogWriter
	level        Level
	consoleLevel Level
	consoleOn    bool
	loggers      map[string]*Logger
}

var reg = &registry{
	loggers: make(map[string]*Logger),
}

// Init initializes the logging system with the given configuration.
// Before Init is called, all loggers write to io.Discard.
func Init(cfg Config) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	consoleOn := false
	consoleLevel := LevelInfo
	if cfg.ConsoleLevel != "" {
		consoleLevel, err = ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
		consoleOn = true
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}
	writer, err := NewLogWriter(path, cfg.MaxLogSize, cfg.LogBackups)
	if err != nil {
		return fmt.Errorf("creating log writer: %w", err)
	}

	if reg.ready && reg.writer != nil {
		if err := reg.writer.Close(); err != nil {
			_ = writer.Close()
			return fmt.Errorf("closing existing writer: %w", err)
		}
	}

	reg.ready = true
	reg.writer = writer
	reg.level = level
	reg.consoleLevel = consoleLevel
	reg.consoleOn = consoleOn

	// Rebind loggers handed out before Init.
	for component, logger := range reg.loggers {
		*logger = *reg.newLogger(component)
	}
	return nil
}

// Get returns a logger for the given component.
// Before Init is called, the returned logger writes to io.Discard.
func Get(component string) *Logger {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if logger, ok := reg.loggers[component]; ok {
		return logger
	}
	logger := reg.newLogger(component)
	reg.loggers[component] = logger
	return logger
}

// newLogger builds a logger for one component. Must be called with
// reg.mu held.
func (r *registry) newLogger(component string) *Logger {
	if !r.ready {
		return &Logger{
			file: log.NewWithOptions(io.Discard, log.Options{Prefix: component}),
		}
	}

	logger := &Logger{
		file: log.NewWithOptions(r.writer, log.Options{
			Level:           r.level.toCharmLevel(),
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          component,
		}),
	}
	if r.consoleOn {
		logger.console = log.NewWithOptions(os.Stderr, log.Options{
			Level:           r.consoleLevel.toCharmLevel(),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		})
	}
	return logger
}

// Close closes the log file.
func Close() error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if !reg.ready {
		return nil
	}

	var err error
	if reg.writer != nil {
		err = reg.writer.Close()
		reg.writer = nil
	}
	reg.ready = false
	reg.loggers = make(map[string]*Logger)
	if err != nil {
		return fmt.Errorf("closing log writer: %w", err)
	}
	return nil
}

// DefaultLogPath returns the default log file path under the XDG state
// directory.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "dustat", "dustat.log")
}

// Package logging provides categorized file-based debug logging.
// Logs are written to <workspace>/.salaatflow/logs/ with one file per
// category per day. When debug mode is off every call is a no-op, so
// the pipeline can log freely without a production cost.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category/system.
type Category string

const (
	CategoryBoot       Category = "boot"       // startup and wiring
	CategorySession    Category = "session"    // conversation state lifecycle
	CategoryPerception Category = "perception" // normalization and slot extraction
	CategoryIntent     Category = "intent"     // intent resolution decisions
	CategoryDispatch   Category = "dispatch"   // action execution
	CategoryStore      Category = "store"      // sqlite operations
	CategoryAPI        Category = "api"        // oracle LLM calls
	CategoryRecur      Category = "recurrence" // recurrence expansion
)

// Log levels.
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex

	stateMu  sync.RWMutex
	logsDir  string
	enabled  bool
	logLevel int = LevelInfo
)

// Logger writes to one category's log file.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

// Initialize sets up the logging directory. When debug is false the
// package stays a silent no-op.
func Initialize(workspace string, debug bool, level string) error {
	stateMu.Lock()
	enabled = debug
	switch level {
	case "debug":
		logLevel = LevelDebug
	case "warn", "warning":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		logLevel = LevelInfo
	}
	logsDir = filepath.Join(workspace, ".salaatflow", "logs")
	stateMu.Unlock()

	if !debug {
		return nil
	}
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	Get(CategoryBoot).Info("logging initialized, dir=%s level=%s", logsDir, level)
	return nil
}

// IsDebugMode reports whether debug logging is on.
func IsDebugMode() bool {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return enabled
}

// Get returns (or creates) the logger for a category. A no-op logger is
// returned when debug mode is off or the file cannot be opened.
func Get(category Category) *Logger {
	stateMu.RLock()
	on, dir := enabled, logsDir
	stateMu.RUnlock()
	if !on || dir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(dir, fmt.Sprintf("%s_%s.log", date, category))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] warning: could not open %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelDebug {
		return
	}
	l.logger.Printf("[DEBUG] "+format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelInfo {
		return
	}
	l.logger.Printf("[INFO] "+format, args...)
}

// Warn logs a warning.
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelWarn {
		return
	}
	l.logger.Printf("[WARN] "+format, args...)
}

// Error logs an error. Always written when the logger exists.
func (l *Logger) Error(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[ERROR] "+format, args...)
}

// CloseAll closes all open log files. Call at shutdown.
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// Convenience helpers for the common categories.

func Session(format string, args ...interface{})    { Get(CategorySession).Info(format, args...) }
func Perception(format string, args ...interface{}) { Get(CategoryPerception).Info(format, args...) }
func Intent(format string, args ...interface{})     { Get(CategoryIntent).Info(format, args...) }
func Dispatch(format string, args ...interface{})   { Get(CategoryDispatch).Info(format, args...) }
func Store(format string, args ...interface{})      { Get(CategoryStore).Info(format, args...) }
func API(format string, args ...interface{})        { Get(CategoryAPI).Info(format, args...) }
func Recur(format string, args ...interface{})      { Get(CategoryRecur).Info(format, args...) }

func PerceptionDebug(format string, args ...interface{}) {
	Get(CategoryPerception).Debug(format, args...)
}
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }
func APIDebug(format string, args ...interface{})   { Get(CategoryAPI).Debug(format, args...) }

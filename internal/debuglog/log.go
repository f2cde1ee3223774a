package debuglog

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel orders message severity. Messages below the active level are dropped.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "OFF"}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelOff {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLogLevel maps a config or flag value to a level. Empty disables
// logging; anything unrecognized falls back to INFO.
func ParseLogLevel(s string) LogLevel {
	name := strings.ToUpper(strings.TrimSpace(s))
	switch name {
	case "":
		return LevelOff
	case "WARNING":
		return LevelWarn
	}
	for i, n := range levelNames {
		if n == name {
			return LogLevel(i)
		}
	}
	return LevelInfo
}

// Options configures file output and rotation.
type Options struct {
	Level      LogLevel
	Path       string
	MaxSizeMB  int
	MaxBackups int
}

var (
	mu           sync.RWMutex
	currentLevel = LevelOff
	logger       *log.Logger
	sink         *lumberjack.Logger
)

// DefaultPath returns ~/.ytspot/ytspot.log.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".ytspot", "ytspot.log")
}

// Setup is SetupWithOptions with default rotation. The path defaults to
// DefaultPath.
func Setup(level LogLevel, filePath ...string) error {
	opts := Options{Level: level}
	if len(filePath) > 0 {
		opts.Path = filePath[0]
	}
	return SetupWithOptions(opts)
}

// SetupWithOptions replaces the active log sink. Files rotate once they
// reach MaxSizeMB, keeping MaxBackups old files.
func SetupWithOptions(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	currentLevel = opts.Level

	if sink != nil {
		sink.Close()
		sink = nil
	}

	if opts.Level == LevelOff {
		logger = nil
		return nil
	}

	logPath := opts.Path
	if logPath == "" {
		logPath = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}

	sink = &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    maxSize,
		MaxBackups: opts.MaxBackups,
	}
	logger = log.New(sink, "ytspot ", log.LstdFlags|log.Lmicroseconds)
	return nil
}

// SetLevel adjusts filtering without touching the sink.
func SetLevel(level LogLevel) {
	mu.Lock()
	currentLevel = level
	mu.Unlock()
}

func GetLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// Close flushes and releases the log file. Logging stays off until the
// next Setup.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if sink == nil {
		return nil
	}
	err := sink.Close()
	sink = nil
	logger = nil
	return err
}

func enabled(level LogLevel) *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if level < currentLevel || logger == nil {
		return nil
	}
	return logger
}

func logf(level LogLevel, format string, args ...any) {
	l := enabled(level)
	if l == nil {
		return
	}
	l.Printf("[%s] %s", level.String(), fmt.Sprintf(format, args...))
}

func Debugf(format string, args ...any) {
	logf(LevelDebug, format, args...)
}

func Infof(format string, args ...any) {
	logf(LevelInfo, format, args...)
}

func Warnf(format string, args ...any) {
	logf(LevelWarn, format, args...)
}

func Errorf(format string, args ...any) {
	logf(LevelError, format, args...)
}

// FieldLogger appends key=value pairs to every message.
type FieldLogger struct {
	fields map[string]any
}

// WithFields attaches structured context to the messages logged through
// the returned logger.
func WithFields(fields map[string]any) *FieldLogger {
	return &FieldLogger{fields: fields}
}

// formatFields renders fields sorted by key. Secret-looking keys are masked.
func (fl *FieldLogger) formatFields() string {
	if len(fl.fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(fl.fields))
	for key := range fl.fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		value := fl.fields[key]
		if isSecretKey(key) {
			value = "***"
		}
		parts = append(parts, fmt.Sprintf("%s=%v", key, value))
	}
	return " [" + strings.Join(parts, " ") + "]"
}

func isSecretKey(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "token") || strings.Contains(k, "password") || strings.Contains(k, "secret")
}

func (fl *FieldLogger) logf(level LogLevel, format string, args ...any) {
	if enabled(level) == nil {
		return
	}
	logf(level, "%s", fmt.Sprintf(format, args...)+fl.formatFields())
}

func (fl *FieldLogger) Debugf(format string, args ...any) {
	fl.logf(LevelDebug, format, args...)
}

func (fl *FieldLogger) Infof(format string, args ...any) {
	fl.logf(LevelInfo, format, args...)
}

func (fl *FieldLogger) Warnf(format string, args ...any) {
	fl.logf(LevelWarn, format, args...)
}

func (fl *FieldLogger) Errorf(format string, args ...any) {
	fl.logf(LevelError, format, args...)
}

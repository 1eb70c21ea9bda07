// Package logger provides leveled logging for hh-autoupdate.
// Messages go to stderr through logrus; when a log file is configured
// they are also written to a size-rotated file. The --verbose flag
// lowers the level to debug so each refresh step is visible.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Fields is a set of structured key/value pairs attached to a log line.
type Fields = logrus.Fields

var (
	mu      sync.RWMutex
	verbose bool
	level   = logrus.InfoLevel
	output  io.Writer = os.Stderr
	rotator *lumberjack.Logger
	base    = newBase()
)

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}

// SetVerbose enables or disables debug logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	applyLevel()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetLevel sets the minimum level by name (debug, info, warn, error).
// Verbose mode still forces debug.
func SetLevel(name string) error {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	mu.Lock()
	defer mu.Unlock()
	level = lvl
	applyLevel()
	return nil
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	applyOutput()
}

// SetFile additionally writes logs to a rotated file at path.
// An empty path turns file output off.
func SetFile(path string) {
	mu.Lock()
	defer mu.Unlock()
	if rotator != nil {
		_ = rotator.Close()
		rotator = nil
	}
	if path != "" {
		rotator = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
	}
	applyOutput()
}

// Close releases the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if rotator == nil {
		return nil
	}
	err := rotator.Close()
	rotator = nil
	applyOutput()
	return err
}

// caller must hold mu.
func applyLevel() {
	if verbose {
		base.SetLevel(logrus.DebugLevel)
		return
	}
	base.SetLevel(level)
}

// caller must hold mu.
func applyOutput() {
	if rotator != nil {
		base.SetOutput(io.MultiWriter(output, rotator))
		return
	}
	base.SetOutput(output)
}

// WithFields returns an entry carrying structured fields.
func WithFields(fields Fields) *logrus.Entry {
	return base.WithFields(fields)
}

// Debug logs a message at debug level.
func Debug(format string, args ...any) {
	base.Debugf(format, args...)
}

// Section logs a section header at debug level.
func Section(name string) {
	base.Debugf("=== %s ===", name)
}

// Info logs an informational message.
func Info(format string, args ...any) {
	base.Infof(format, args...)
}

// Warn logs a warning.
func Warn(format string, args ...any) {
	base.Warnf(format, args...)
}

// Error logs an error.
func Error(format string, args ...any) {
	base.Errorf(format, args...)
}

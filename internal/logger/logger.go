// Package logger provides structured logging for emu-alert.
//
// Logs go to stderr by default so stdout stays reserved for the single outcome
// line the CLI prints. Every entry written through the package-level functions
// carries the run_id of the current invocation.
//
// Example usage:
//
//	logger.Debug("Sending message", logger.Fields{
//	    "chat_id": "123456",
//	    "length":  42,
//	})
//
//	logger.Error("Telegram request failed", logger.Fields{
//	    "kind": "network",
//	}, err)
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Fields represents structured log fields
type Fields map[string]interface{}

// Logger provides structured logging
type Logger struct {
	entry *logrus.Entry
}

var defaultLogger = New(LevelWarn, os.Stderr)

// ParseLevel converts a level name into a Level. Matching is case-insensitive.
func ParseLevel(name string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(name))) {
	case LevelDebug:
		return LevelDebug, nil
	case LevelInfo:
		return LevelInfo, nil
	case LevelWarn, "warning":
		return LevelWarn, nil
	case LevelError:
		return LevelError, nil
	}
	return "", fmt.Errorf("unknown log level %q", name)
}

// New creates a logger with the specified minimum level writing to output.
// Each logger gets a fresh run_id.
func New(level Level, output io.Writer) *Logger {
	l := logrus.New()
	l.SetOutput(output)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetLevel(toLogrus(level))

	return &Logger{
		entry: l.WithField("run_id", uuid.NewString()),
	}
}

// SetDefault sets the logger used by the package-level functions.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}

// Default returns the logger used by the package-level functions.
func Default() *Logger {
	return defaultLogger
}

// RunID returns the correlation id attached to every entry of this logger.
func (l *Logger) RunID() string {
	id, _ := l.entry.Data["run_id"].(string)
	return id
}

func toLogrus(level Level) logrus.Level {
	switch level {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelInfo:
		return logrus.InfoLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.WarnLevel
	}
}

func (l *Logger) with(fields Fields, err error) *logrus.Entry {
	e := l.entry.WithFields(logrus.Fields(fields))
	if err != nil {
		e = e.WithError(err)
	}
	return e
}

// Debug logs a detailed diagnostic message.
func (l *Logger) Debug(message string, fields Fields) {
	l.with(fields, nil).Debug(message)
}

// Info logs an informational message.
func (l *Logger) Info(message string, fields Fields) {
	l.with(fields, nil).Info(message)
}

// Warn logs a message about a potential issue that doesn't stop the run.
func (l *Logger) Warn(message string, fields Fields) {
	l.with(fields, nil).Warn(message)
}

// Error logs a failure together with its error value.
func (l *Logger) Error(message string, fields Fields, err error) {
	l.with(fields, err).Error(message)
}

// Package-level convenience functions using default logger

// Debug logs a debug message with the default logger
func Debug(message string, fields Fields) {
	defaultLogger.Debug(message, fields)
}

// Info logs an info message with the default logger
func Info(message string, fields Fields) {
	defaultLogger.Info(message, fields)
}

// Warn logs a warning message with the default logger
func Warn(message string, fields Fields) {
	defaultLogger.Warn(message, fields)
}

// Error logs an error message with the default logger
func Error(message string, fields Fields, err error) {
	defaultLogger.Error(message, fields, err)
}

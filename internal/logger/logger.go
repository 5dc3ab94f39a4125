// Package logger provides leveled logging for the CLI and server.
// It wraps a package-level logrus logger configured once by Init.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Fields is a set of structured log fields.
type Fields = logrus.Fields

var std = newLogger(os.Stderr, "info", "text")

func newLogger(out io.Writer, level, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(parseLevel(level))
	if strings.ToLower(format) == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Init replaces the default logger with the given level and format ("text" or "json").
func Init(level, format string) {
	std = newLogger(os.Stderr, level, format)
}

// SetOutput redirects log output, e.g. to a buffer in tests.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// WithFields returns an entry carrying structured context.
func WithFields(f Fields) *logrus.Entry {
	return std.WithFields(f)
}

// Debug logs a message at debug level
func Debug(format string, args ...interface{}) {
	std.Debugf(format, args...)
}

// Info logs a message at info level
func Info(format string, args ...interface{}) {
	std.Infof(format, args...)
}

// Warn logs a message at warn level
func Warn(format string, args ...interface{}) {
	std.Warnf(format, args...)
}

// Error logs a message at error level
func Error(format string, args ...interface{}) {
	std.Errorf(format, args...)
}

// Fatal logs a message and exits with status 1
func Fatal(format string, args ...interface{}) {
	std.Fatalf(format, args...)
}

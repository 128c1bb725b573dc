// Package logx provides structured logging for the rfmap daemon
package logx

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger provides structured JSON logging
type Logger struct {
	log *logrus.Logger
}

// New creates a new structured logger writing JSON to stdout
func New(level string) *Logger {
	return NewWithOutput(level, os.Stdout)
}

// NewWithOutput creates a logger writing to the given destination
func NewWithOutput(level string, out io.Writer) *Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(parseLevel(level))
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "ts",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "msg",
		},
	})
	return &Logger{log: l}
}

// parseLevel converts a level string to a logrus level
func parseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// fields converts alternating key-value pairs into logrus fields
func fields(keysAndValues []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		f[key] = keysAndValues[i+1]
	}
	return f
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug(msg)
}

// Info logs an info message
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Info(msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Warn(msg)
}

// Error logs an error message
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Error(msg)
}

// LogStateChange logs a component state transition at info level
func (l *Logger) LogStateChange(component, from, to, reason string, data map[string]interface{}) {
	f := logrus.Fields{
		"component": component,
		"from":      from,
		"to":        to,
		"reason":    reason,
	}
	for k, v := range data {
		f[k] = v
	}
	l.log.WithFields(f).Info("state_change")
}

// LogVerbose logs detailed diagnostic data at debug level
func (l *Logger) LogVerbose(event string, data map[string]interface{}) {
	f := logrus.Fields{"event": event}
	for k, v := range data {
		f[k] = v
	}
	l.log.WithFields(f).Debug(event)
}

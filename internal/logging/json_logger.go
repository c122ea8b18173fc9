package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vvka-141/oews/pkg/oews"
)

// Log output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// JSONLogger emits one JSON object per message. Verbose maps to logrus' debug level.
type JSONLogger struct {
	entry *logrus.Entry
}

// NewJSONLogger creates a JSONLogger writing to w.
func NewJSONLogger(w io.Writer, verbose bool) *JSONLogger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return &JSONLogger{entry: logrus.NewEntry(l).WithField("app", "oews")}
}

// With returns a logger that adds key=value to every message.
func (l *JSONLogger) With(key string, value interface{}) *JSONLogger {
	return &JSONLogger{entry: l.entry.WithField(key, value)}
}

func (l *JSONLogger) Verbose(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *JSONLogger) Info(format string, args ...interface{})    { l.entry.Infof(format, args...) }
func (l *JSONLogger) Warn(format string, args ...interface{})    { l.entry.Warnf(format, args...) }
func (l *JSONLogger) Error(format string, args ...interface{})   { l.entry.Errorf(format, args...) }

// New returns the logger for a --log-format value writing to stderr.
func New(format string, verbose bool) (oews.Logger, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return NewConsoleLogger(verbose), nil
	case FormatJSON:
		return NewJSONLogger(os.Stderr, verbose), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (supported: text, json): %w", format, oews.ErrInvalidConfig)
	}
}

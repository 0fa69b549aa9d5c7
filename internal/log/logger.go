// Package log is the process-wide leveled logger. It wraps logrus so call
// sites stay short (log.Info, log.Debugf, log.LogWithFields(...).Warn) while
// output can be switched between text and JSON.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	apperrors "renamezip/internal/errors"

	"github.com/sirupsen/logrus"
)

var (
	isDebug atomic.Bool
	logger  = NewLogger()
)

// Field is a single structured key/value attached to a log line.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logger writes leveled, structured log lines.
type Logger struct {
	entry *logrus.Entry
	file  *os.File
}

type options struct {
	out  io.Writer
	json bool
	file string
}

// Option configures a Logger
type Option func(*options)

// WithOutput redirects log output
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithJSON switches to one JSON object per line
func WithJSON() Option {
	return func(o *options) { o.json = true }
}

// WithFile copies every line to the file at path in addition to the output
func WithFile(path string) Option {
	return func(o *options) { o.file = path }
}

// NewLogger creates a logger writing to stdout unless configured otherwise.
func NewLogger(opts ...Option) *Logger {
	o := &options{out: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	base := logrus.New()
	base.SetLevel(logrus.DebugLevel) // debug lines are gated by SetDebug
	if o.json {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	} else {
		base.SetFormatter(&logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	l := &Logger{}
	out := o.out
	if o.file != "" {
		f, err := os.OpenFile(o.file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log: cannot open %s: %v\n", o.file, err)
		} else {
			l.file = f
			out = io.MultiWriter(o.out, f)
		}
	}
	base.SetOutput(out)
	l.entry = logrus.NewEntry(base)
	return l
}

// Configure replaces the process logger.
func Configure(opts ...Option) {
	logger = NewLogger(opts...)
}

// SetDebug enables or disables debug output for every logger.
func SetDebug(debug bool) {
	isDebug.Store(debug)
}

// IsDebug reports whether debug output is enabled
func IsDebug() bool {
	return isDebug.Load()
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// With returns a logger carrying the given fields.
func (l *Logger) With(fields ...Field) *Logger {
	lf := make(logrus.Fields, len(fields))
	for _, f := range fields {
		lf[f.Key] = f.Value
	}
	return &Logger{entry: l.entry.WithFields(lf), file: l.file}
}

// WithError attaches err and its classification.
func (l *Logger) WithError(err error) *Logger {
	return l.With(errorFields(err)...)
}

// WithContext attaches ctx to the entry.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}
	return &Logger{entry: l.entry.WithContext(ctx), file: l.file}
}

func (l *Logger) Debug(msg string) {
	if isDebug.Load() {
		l.entry.Debug(msg)
	}
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	if isDebug.Load() {
		l.entry.Debugf(format, args...)
	}
}

func (l *Logger) Info(msg string)                           { l.entry.Info(msg) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warn(msg string)                           { l.entry.Warn(msg) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Error(msg string)                          { l.entry.Error(msg) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func errorFields(err error) []Field {
	if err == nil {
		return []Field{F("error", "<nil>")}
	}
	fields := []Field{
		F("error", err.Error()),
		F("error_kind", apperrors.KindOf(err).String()),
	}

	var fileErr *apperrors.FileError
	if apperrors.As(err, &fileErr) && fileErr.Path() != "" {
		fields = append(fields, F("path", fileErr.Path()))
	}
	var travErr *apperrors.TraversalError
	if apperrors.As(err, &travErr) {
		fields = append(fields, F("path", travErr.Path()), F("stage", travErr.Stage()))
	}
	var configErr *apperrors.ConfigError
	if apperrors.As(err, &configErr) && configErr.Param() != "" {
		fields = append(fields, F("param", configErr.Param()))
	}
	var mapErr *apperrors.MappingError
	if apperrors.As(err, &mapErr) && mapErr.Line() > 0 {
		fields = append(fields, F("line", mapErr.Line()))
	}
	var archErr *apperrors.ArchiveError
	if apperrors.As(err, &archErr) && archErr.Entry() != "" {
		fields = append(fields, F("entry", archErr.Entry()))
	}
	return fields
}

// Default returns the process logger
func Default() *Logger {
	return logger
}

// LogWithFields returns the process logger carrying fields
func LogWithFields(fields ...Field) *Logger {
	return logger.With(fields...)
}

// LogWithError returns the process logger carrying err and its classification
func LogWithError(err error) *Logger {
	return logger.WithError(err)
}

// LogError logs err at error level with msg
func LogError(err error, msg string) {
	logger.WithError(err).Error(msg)
}

// Debug logs a formatted message when debug output is enabled
func Debug(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// Debugf logs a formatted message when debug output is enabled
func Debugf(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

func Info(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

func Infof(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// Warn logs a formatted warning message
func Warn(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// Warnf logs a formatted warning message
func Warnf(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// Error logs a formatted error message
func Error(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// Errorf logs a formatted error message
func Errorf(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// Package logger provides the logging interface used across the addon,
// backed by logrus with optional rotating file output.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger defines the logging interface
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})
	Info(v ...interface{})
	Infof(format string, v ...interface{})
	Warn(v ...interface{})
	Warnf(format string, v ...interface{})
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
	Fatal(v ...interface{})
	Fatalf(format string, v ...interface{})
}

// Options controls where and how verbosely the logger writes.
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New creates a logger configured from LOG_LEVEL and LOG_FILE.
func New() Logger {
	return NewWithOptions(Options{
		Level: os.Getenv("LOG_LEVEL"),
		File:  os.Getenv("LOG_FILE"),
	})
}

// NewWithOptions creates a logger writing to stdout and, when opts.File is set,
// to a size-rotated file.
func NewWithOptions(opts Options) Logger {
	l := logrus.New()
	l.SetLevel(ParseLevel(opts.Level))
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05",
	})

	if opts.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 50),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     orDefault(opts.MaxAgeDays, 14),
			Compress:   true,
		}
		l.SetOutput(io.MultiWriter(os.Stdout, rotating))
	} else {
		l.SetOutput(os.Stdout)
	}

	return l
}

// NewNop returns a logger that discards everything. Used by tests.
func NewNop() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// ParseLevel converts a LOG_LEVEL string to a logrus level, defaulting to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

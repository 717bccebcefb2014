package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger defines the interface for logging throughout the application.
// Different implementations can be used for different contexts (console, silent, etc.)
type Logger interface {
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// Options configures a ConsoleLogger.
type Options struct {
	// Level is a logrus level name (debug, info, warn, error). Empty means info.
	Level string
	// File, when set, receives a copy of every entry and is rotated by size.
	File string
	// Output overrides stderr. Used by tests.
	Output io.Writer
}

// ConsoleLogger writes human-readable logs to stderr and optionally to a rotated file.
type ConsoleLogger struct {
	entry *logrus.Logger
	file  *lumberjack.Logger
}

// New creates a ConsoleLogger from options.
func New(opts Options) (*ConsoleLogger, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	var out io.Writer = os.Stderr
	if opts.Output != nil {
		out = opts.Output
	}

	l := &ConsoleLogger{entry: logrus.New()}
	if opts.File != "" {
		l.file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		out = io.MultiWriter(out, l.file)
	}

	l.entry.SetOutput(out)
	l.entry.SetLevel(level)
	l.entry.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l, nil
}

func (c *ConsoleLogger) Info(msg string, args ...interface{}) {
	c.entry.Infof(msg, args...)
}

func (c *ConsoleLogger) Warn(msg string, args ...interface{}) {
	c.entry.Warnf(msg, args...)
}

func (c *ConsoleLogger) Error(msg string, args ...interface{}) {
	c.entry.Errorf(msg, args...)
}

func (c *ConsoleLogger) Debug(msg string, args ...interface{}) {
	c.entry.Debugf(msg, args...)
}

// Close releases the log file, if any.
func (c *ConsoleLogger) Close() error {
	if c.file == nil {
		return nil
	}
	return c.file.Close()
}

// SilentLogger discards all log messages.
// Used when stdout belongs to something else: the TUI or the MCP stdio transport.
type SilentLogger struct{}

func NewSilentLogger() *SilentLogger {
	return &SilentLogger{}
}

func (s *SilentLogger) Info(msg string, args ...interface{})  {}
func (s *SilentLogger) Warn(msg string, args ...interface{})  {}
func (s *SilentLogger) Error(msg string, args ...interface{}) {}
func (s *SilentLogger) Debug(msg string, args ...interface{}) {}

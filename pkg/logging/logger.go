package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Logger provides leveled, component-scoped logging for browsertool.
// Entries are written through logrus and always carry the component name
// and the process-wide session ID as fields.
type Logger struct {
	component string
	entry     *logrus.Entry
	file      *os.File
	logPath   string
	closeOnce *sync.Once
}

var (
	// Global session ID for the current execution
	sessionID     string
	sessionIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string

	initOnce sync.Once
	initErr  error
)

func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

// initLogDirectory ensures the log directory exists
func initLogDirectory() error {
	initOnce.Do(func() {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			initErr = fmt.Errorf("failed to get home directory: %w", err)
			return
		}

		logDir = filepath.Join(homeDir, ".browsertool", "logs")
		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}
	})
	return initErr
}

// NewLogger creates a file-backed logger for a component.
// The logger writes to ~/.browsertool/logs/<session-id>-browsertool.log.
//
// If the log file cannot be opened it returns a logger that writes to
// stderr together with the error, so callers can warn about fallback mode.
func NewLogger(component, level string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, level, err), err
	}

	logPath := filepath.Join(logDir, fmt.Sprintf("%s-browsertool.log", getSessionID()))

	// Append mode: several components share one file per run
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		err = fmt.Errorf("failed to open log file: %w", err)
		return newFallbackLogger(component, level, err), err
	}

	l := New(component, file, level)
	l.file = file
	l.logPath = logPath
	return l, nil
}

// New creates a logger for a component that writes to w.
// Unknown levels fall back to info.
func New(component string, w io.Writer, level string) *Logger {
	base := logrus.New()
	base.SetOutput(w)
	base.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	base.SetLevel(logLevel)

	return &Logger{
		component: component,
		entry: base.WithFields(logrus.Fields{
			"component": component,
			"session":   getSessionID(),
		}),
		closeOnce: &sync.Once{},
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New("discard", io.Discard, "panic")
}

func newFallbackLogger(component, level string, err error) *Logger {
	l := New(component, os.Stderr, level)
	l.Warnf("failed to initialize file logging: %v", err)
	l.Warnf("falling back to stderr logging")
	return l
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.entry.Debugf(format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.entry.Infof(format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.entry.Warnf(format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.entry.Errorf(format, v...)
}

// With returns a logger that adds the given field to every entry.
// It shares the parent's file: closing either closes both.
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{
		component: l.component,
		entry:     l.entry.WithField(key, value),
		file:      l.file,
		logPath:   l.logPath,
		closeOnce: l.closeOnce,
	}
}

// Component returns the component name the logger was created for.
func (l *Logger) Component() string {
	return l.component
}

// LogPath returns the path to the log file, or "" for writer-backed loggers.
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// GetSessionID returns the current global session ID
func GetSessionID() string {
	return getSessionID()
}

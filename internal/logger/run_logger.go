package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Level controls which messages reach the run log.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// RunLogger writes a per-backtest trail of skips, rejections and warnings
// to its own log file. All methods are safe on a nil receiver, so callers
// can leave logging unconfigured.
type RunLogger struct {
	file   *os.File
	logger *log.Logger
	level  Level
}

// NewRunLogger creates a log file named after the run inside dir, creating
// dir if needed.
func NewRunLogger(dir, runID string) (*RunLogger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	name := fmt.Sprintf("backtest_%s_%s.log", runID, time.Now().Format("20060102_150405"))
	file, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &RunLogger{
		file:   file,
		logger: log.New(file, "", log.LstdFlags),
		level:  LevelInfo,
	}, nil
}

// SetLevel adjusts the minimum level that gets written.
func (l *RunLogger) SetLevel(level Level) {
	if l == nil {
		return
	}
	l.level = level
}

// Close flushes and closes the underlying file.
func (l *RunLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *RunLogger) logf(level Level, format string, args ...interface{}) {
	if l == nil || level < l.level {
		return
	}
	l.logger.Printf("[%s] %s", level, fmt.Sprintf(format, args...))
}

func (l *RunLogger) Debugf(format string, args ...interface{}) {
	l.logf(LevelDebug, format, args...)
}

func (l *RunLogger) Infof(format string, args ...interface{}) {
	l.logf(LevelInfo, format, args...)
}

func (l *RunLogger) Warnf(format string, args ...interface{}) {
	l.logf(LevelWarn, format, args...)
}

func (l *RunLogger) Errorf(format string, args ...interface{}) {
	l.logf(LevelError, format, args...)
}

package core

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

type LogConfig struct {
	Level  string    `toml:"level"`
	Prefix string    `toml:"prefix"`
	Output io.Writer `toml:"-"`
}

var (
	loggerMu sync.RWMutex
	logger   = NewLogger(LogConfig{Level: "debug", Prefix: "Tessera 🎨 "})
)

// NewLogger builds a logger with caller and timestamp reporting.
func NewLogger(cfg LogConfig) *log.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	l := log.NewWithOptions(out, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          cfg.Prefix,
	})
	l.SetLevel(parseLevel(cfg.Level))
	// the helpers below add one frame
	l.SetCallerOffset(1)
	return l
}

// SetLogger replaces the logger used by the Log* helpers.
func SetLogger(l *log.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

func Logger() *log.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.DebugLevel
	}
}

func LogDebug(msg string, args ...interface{}) {
	Logger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...interface{}) {
	Logger().Infof(msg, args...)
}

func LogWarn(msg string, args ...interface{}) {
	Logger().Warnf(msg, args...)
}

func LogError(msg string, args ...interface{}) {
	Logger().Errorf(msg, args...)
}

func LogFatal(msg string, args ...interface{}) {
	Logger().Fatalf(msg, args...)
}

package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides a unified leveled logging interface for the bot.
// It is backed by a zap sugared logger; tests can swap the sink with SetOutput.

// LogLevel represents log severity levels
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	// CurrentLevel is the current logging level (default: Info)
	CurrentLevel = LevelInfo

	mu    sync.RWMutex
	sugar = newSugar("console", nil)
)

// Debugf logs a debug message
func Debugf(format string, args ...interface{}) {
	if CurrentLevel > LevelDebug {
		return
	}
	current().Debugf(format, args...)
}

// Infof logs an info message
func Infof(format string, args ...interface{}) {
	if CurrentLevel > LevelInfo {
		return
	}
	current().Infof(format, args...)
}

// Warnf logs a warning message
func Warnf(format string, args ...interface{}) {
	if CurrentLevel > LevelWarn {
		return
	}
	current().Warnf(format, args...)
}

// Errorf logs an error message
func Errorf(format string, args ...interface{}) {
	current().Errorf(format, args...)
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// SetLevel sets the minimum log level
func SetLevel(level LogLevel) {
	CurrentLevel = level
}

// ParseLevel maps a config string onto a LogLevel, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Setup configures level and encoding ("console" or "json") of the process logger.
func Setup(level, format string) {
	SetLevel(ParseLevel(level))
	SetOutput(format, nil)
}

// SetOutput replaces the sink. A nil writer logs to stderr.
func SetOutput(format string, w zapcore.WriteSyncer) {
	s := newSugar(format, w)
	mu.Lock()
	old := sugar
	sugar = s
	mu.Unlock()
	_ = old.Sync()
}

// Sync flushes buffered entries.
func Sync() {
	_ = current().Sync()
}

func newSugar(format string, w zapcore.WriteSyncer) *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if strings.EqualFold(format, "json") {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	if w == nil {
		w = zapcore.Lock(zapcore.AddSync(os.Stderr))
	}
	// level filtering happens in the facade
	core := zapcore.NewCore(enc, w, zapcore.DebugLevel)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// ContextLogger prefixes every entry with fixed key/value fields.
type ContextLogger struct {
	fields []interface{}
}

// WithContext creates a new logger with context
func WithContext(context map[string]interface{}) *ContextLogger {
	fields := make([]interface{}, 0, len(context)*2)
	for k, v := range context {
		fields = append(fields, k, v)
	}
	return &ContextLogger{fields: fields}
}

// Debugf logs with context
func (c *ContextLogger) Debugf(format string, args ...interface{}) {
	if CurrentLevel > LevelDebug {
		return
	}
	current().With(c.fields...).Debugf(format, args...)
}

// Infof logs with context
func (c *ContextLogger) Infof(format string, args ...interface{}) {
	if CurrentLevel > LevelInfo {
		return
	}
	current().With(c.fields...).Infof(format, args...)
}

// Warnf logs with context
func (c *ContextLogger) Warnf(format string, args ...interface{}) {
	if CurrentLevel > LevelWarn {
		return
	}
	current().With(c.fields...).Warnf(format, args...)
}

// Errorf logs with context
func (c *ContextLogger) Errorf(format string, args ...interface{}) {
	current().With(c.fields...).Errorf(format, args...)
}

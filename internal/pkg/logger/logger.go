// Package logger provides the process-wide structured logger.
//
// Call sites use the package-level helpers with alternating key/value pairs:
//
//	logger.Info("loyalty calculated", "user_id", id, "score", score)
//
// Entries are JSON on stderr via zap. Values of keys that look like user
// identifiers or emails are redacted unless redaction is disabled.
package logger

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity of a log entry.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

func (l Level) String() string { return levelNames[l] }

// ParseLevel maps "debug", "info", "warn" or "error" (any case) to a Level.
// Unknown names resolve to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

func (l Level) zap() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger wraps a zap logger with PII redaction of field values.
type Logger struct {
	mu        sync.RWMutex
	level     zap.AtomicLevel
	base      *zap.Logger
	redactPII bool
}

// New builds a Logger writing JSON to stderr at the given level.
func New(level Level) *Logger {
	atom := zap.NewAtomicLevelAt(level.zap())
	cfg := zap.NewProductionConfig()
	cfg.Level = atom
	cfg.Sampling = nil
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true

	base, err := cfg.Build()
	if err != nil {
		base = zap.NewNop()
	}
	return &Logger{level: atom, base: base, redactPII: true}
}

// NewWithCore builds a Logger on top of an existing zap core. Tests use it
// with zaptest/observer to inspect entries.
func NewWithCore(core zapcore.Core) *Logger {
	return &Logger{level: zap.NewAtomicLevelAt(zapcore.DebugLevel), base: zap.New(core), redactPII: true}
}

var defaultLogger = New(INFO)

// Default returns the process-wide logger.
func Default() *Logger { return defaultLogger }

// SetDefault replaces the process-wide logger.
func SetDefault(l *Logger) { defaultLogger = l }

// SetLevel sets the minimum log level for the default logger.
func SetLevel(l Level) { defaultLogger.level.SetLevel(l.zap()) }

// SetRedactPII enables or disables PII redaction for the default logger.
func SetRedactPII(r bool) {
	defaultLogger.mu.Lock()
	defaultLogger.redactPII = r
	defaultLogger.mu.Unlock()
}

// Sync flushes buffered entries of the default logger.
func Sync() { _ = defaultLogger.base.Sync() }

// Debug emits a DEBUG-level structured log entry.
func Debug(msg string, fields ...interface{}) { defaultLogger.log(DEBUG, msg, fields...) }

// Info emits an INFO-level structured log entry.
func Info(msg string, fields ...interface{}) { defaultLogger.log(INFO, msg, fields...) }

// Warn emits a WARN-level structured log entry.
func Warn(msg string, fields ...interface{}) { defaultLogger.log(WARN, msg, fields...) }

// Error emits an ERROR-level structured log entry.
func Error(msg string, fields ...interface{}) { defaultLogger.log(ERROR, msg, fields...) }

// Info emits an INFO-level entry on l.
func (l *Logger) Info(msg string, fields ...interface{}) { l.log(INFO, msg, fields...) }

// Warn emits a WARN-level entry on l.
func (l *Logger) Warn(msg string, fields ...interface{}) { l.log(WARN, msg, fields...) }

func (l *Logger) log(level Level, msg string, fields ...interface{}) {
	ce := l.base.Check(level.zap(), msg)
	if ce == nil {
		return
	}

	l.mu.RLock()
	redact := l.redactPII
	l.mu.RUnlock()

	zf := make([]zap.Field, 0, len(fields)/2)
	for i := 0; i < len(fields)-1; i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		if err, ok := fields[i+1].(error); ok && key == "error" {
			zf = append(zf, zap.String(key, redactValue(redact, key, err.Error())))
			continue
		}
		switch v := fields[i+1].(type) {
		case int:
			zf = append(zf, zap.Int(key, v))
		case int64:
			zf = append(zf, zap.Int64(key, v))
		case float64:
			zf = append(zf, zap.Float64(key, v))
		case bool:
			zf = append(zf, zap.Bool(key, v))
		default:
			zf = append(zf, zap.String(key, redactValue(redact, key, fmt.Sprintf("%v", v))))
		}
	}
	ce.Write(zf...)
}

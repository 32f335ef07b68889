// Package logger builds the zap loggers used across the door controller.
package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the logging level.
type LogLevel string

// LogFormat represents the logging format.
type LogFormat string

const (
	DebugLevel LogLevel = "DEBUG"
	InfoLevel  LogLevel = "INFO"
	WarnLevel  LogLevel = "WARN"
	ErrorLevel LogLevel = "ERROR"

	// FormatConsole is zap's human-readable console encoding.
	FormatConsole LogFormat = "CONSOLE"
	// FormatJSON is structured JSON, one object per line.
	FormatJSON LogFormat = "JSON"
)

var (
	mu     sync.Mutex
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	global *zap.Logger
)

// ParseLevel converts a level name to a zap level. Unknown names map to
// info. Numeric levels 0..6 follow the serial console convention: 0 silent,
// 1 fatal, 2 error, 3 warning, 4 notice/info, 5 trace, 6 verbose.
func ParseLevel(name string) (zapcore.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG", "VERBOSE", "TRACE", "5", "6":
		return zapcore.DebugLevel, true
	case "INFO", "NOTICE", "PRODUCTION", "4":
		return zapcore.InfoLevel, true
	case "WARN", "WARNING", "3":
		return zapcore.WarnLevel, true
	case "ERROR", "2":
		return zapcore.ErrorLevel, true
	case "FATAL", "1":
		return zapcore.FatalLevel, true
	case "SILENT", "OFF", "0":
		return zapcore.FatalLevel + 1, true
	default:
		return zapcore.InfoLevel, false
	}
}

// ParseFormat returns the named format, or def when the name is unknown.
func ParseFormat(name string, def LogFormat) LogFormat {
	f := LogFormat(strings.ToUpper(strings.TrimSpace(name)))
	if f != FormatConsole && f != FormatJSON {
		return def
	}
	return f
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// New creates a zap logger writing to stdout. Its level is shared with
// SetLevel so it can be changed at runtime.
func New(logLevel string, logFormat LogFormat) *zap.Logger {
	lvl, _ := ParseLevel(logLevel)
	level.SetLevel(lvl)

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "component",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
	}

	var encoder zapcore.Encoder
	if logFormat == FormatConsole {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.ConsoleSeparator = " | "
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)
	return zap.New(core, zap.AddCaller())
}

// Initialize installs the global logger from LOGGING_LEVEL and
// LOGGING_FORMAT unless one is already installed.
func Initialize() {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		return
	}
	lvl := getEnv("LOGGING_LEVEL", string(InfoLevel))
	format := ParseFormat(getEnv("LOGGING_FORMAT", ""), FormatConsole)
	install(New(lvl, format))
}

// Replace installs l as the global logger.
func Replace(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	install(l)
}

func install(l *zap.Logger) {
	global = l
	zap.ReplaceGlobals(l)
}

// SetLevel changes the level of loggers built by New.
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

// Level returns the current level of loggers built by New.
func Level() zapcore.Level {
	return level.Level()
}

// Sync flushes any buffered log entries.
func Sync() error {
	return zap.L().Sync()
}

// For returns a named logger for a component.
func For(component string) *zap.SugaredLogger {
	Initialize()
	return zap.S().Named(component)
}

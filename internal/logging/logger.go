package logging

import (
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	output      *zap.Logger
	minLevel    Level
	baseContext map[string]string
}

// NewLogger returns a Logger writing human-readable lines to stderr.
func NewLogger(minLevel Level) *Logger {
	return NewLoggerWithOutput(minLevel, os.Stderr)
}

func NewLoggerWithOutput(minLevel Level, output io.Writer) *Logger {
	if output == nil {
		output = io.Discard
	}
	minLevel = normalizeLevel(minLevel)

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(output),
		zap.NewAtomicLevelAt(minLevel.zapLevel()),
	)
	return NewLoggerWithCore(core, minLevel)
}

// NewLoggerWithCore wraps an existing zap core, typically an observer in tests.
func NewLoggerWithCore(core zapcore.Core, minLevel Level) *Logger {
	if core == nil {
		core = zapcore.NewNopCore()
	}
	return &Logger{
		output:   zap.New(core),
		minLevel: normalizeLevel(minLevel),
	}
}

func NewNop() *Logger {
	return NewLoggerWithCore(zapcore.NewNopCore(), LevelError)
}

func (l *Logger) With(fields map[string]string) *Logger {
	if l == nil {
		return l
	}
	return &Logger{
		output:      l.output,
		minLevel:    l.minLevel,
		baseContext: cloneFields(l.baseContext, fields),
	}
}

func (l *Logger) Debug(message string, fields map[string]string) {
	l.log(LevelDebug, message, fields)
}

func (l *Logger) Info(message string, fields map[string]string) {
	l.log(LevelInfo, message, fields)
}

func (l *Logger) Warn(message string, fields map[string]string) {
	l.log(LevelWarning, message, fields)
}

func (l *Logger) Error(message string, fields map[string]string) {
	l.log(LevelError, message, fields)
}

func (l *Logger) Enabled(level Level) bool {
	if l == nil {
		return false
	}
	return levelRank(level) >= levelRank(l.minLevel)
}

// Sync flushes buffered output. Errors from syncing a terminal are ignored.
func (l *Logger) Sync() {
	if l == nil || l.output == nil {
		return
	}
	_ = l.output.Sync()
}

func (l *Logger) log(level Level, message string, fields map[string]string) {
	if l == nil || !l.Enabled(level) {
		return
	}

	entry := LogEntry{
		Level:   level,
		Message: message,
		Context: cloneFields(l.baseContext, fields),
	}
	zapFields := formatFields(entry.Context)
	switch level {
	case LevelDebug:
		l.output.Debug(entry.Message, zapFields...)
	case LevelWarning:
		l.output.Warn(entry.Message, zapFields...)
	case LevelError:
		l.output.Error(entry.Message, zapFields...)
	default:
		l.output.Info(entry.Message, zapFields...)
	}
}

func normalizeLevel(level Level) Level {
	switch level {
	case LevelDebug, LevelInfo, LevelWarning, LevelError:
		return level
	default:
		return LevelInfo
	}
}

func levelRank(level Level) int {
	switch level {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarning:
		return 2
	case LevelError:
		return 3
	default:
		return 1
	}
}

func ParseLevel(value string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warning", "warn":
		return LevelWarning, true
	case "error":
		return LevelError, true
	default:
		return "", false
	}
}

func cloneFields(base, extra map[string]string) map[string]string {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	combined := make(map[string]string, len(base)+len(extra))
	for key, value := range base {
		combined[key] = value
	}
	for key, value := range extra {
		combined[key] = value
	}
	return combined
}

// formatFields orders fields by key so output is stable between runs.
func formatFields(context map[string]string) []zap.Field {
	if len(context) == 0 {
		return nil
	}
	keys := make([]string, 0, len(context))
	for key := range context {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	fields := make([]zap.Field, 0, len(keys))
	for _, key := range keys {
		fields = append(fields, zap.String(key, context[key]))
	}
	return fields
}

// Package logger держит общий zap-логгер faucetsim. Пакеты получают
// именованные sugared-логгеры через Named.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config - параметры логгера: файл, уровень, вывод в консоль и формат.
type Config struct {
	Path    string `json:"path"`
	Level   string `json:"level"`
	Console bool   `json:"console"`
	// Format: "json" (по умолчанию) или "console"
	Format string `json:"format"`
}

var (
	mu           sync.Mutex
	globalLogger *zap.Logger
	closers      []io.Closer
	undoStdLog   func()
)

// Init собирает глобальный логгер. Повторный вызов заменяет его,
// предыдущие файлы закрываются.
func Init(cfg Config) (*zap.Logger, error) {
	l, c, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	Replace(l, c...)
	return l, nil
}

// Replace подменяет глобальный логгер (используется в тестах с observer).
// Вывод стандартного пакета log (в том числе pebble) идет в этот же логгер.
func Replace(l *zap.Logger, c ...io.Closer) {
	mu.Lock()
	old := closers
	globalLogger = l
	closers = c
	if undoStdLog != nil {
		undoStdLog()
	}
	undoStdLog = zap.RedirectStdLog(l)
	mu.Unlock()

	for _, closer := range old {
		_ = closer.Close()
	}
	zap.ReplaceGlobals(l)
}

// L возвращает глобальный логгер или zap.L(), если Init не вызывался
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if globalLogger != nil {
		return globalLogger
	}
	return zap.L()
}

func Sugar() *zap.SugaredLogger {
	return L().Sugar()
}

// Named возвращает sugared-логгер с именем подсистемы
func Named(name string) *zap.SugaredLogger {
	return L().Named(name).Sugar()
}

// Sync сбрасывает буферы и закрывает открытые файлы
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
	for _, closer := range closers {
		_ = closer.Close()
	}
	closers = nil
}

// ParseLevel разбирает уровень; пустая строка - info
func ParseLevel(text string) (zapcore.Level, error) {
	text = strings.TrimSpace(strings.ToLower(text))
	if text == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(text)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", text, err)
	}
	return level, nil
}

func newLogger(cfg Config) (*zap.Logger, []io.Closer, error) {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var sinks []zapcore.WriteSyncer
	var closerList []io.Closer

	if cfg.Console {
		sinks = append(sinks, zapcore.Lock(os.Stderr))
	}
	if cfg.Path != "" {
		file, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		sinks = append(sinks, zapcore.AddSync(file))
		closerList = append(closerList, file)
	}
	if len(sinks) == 0 {
		sinks = append(sinks, zapcore.Lock(os.Stderr))
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	case "console":
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(sinks...), zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddCaller()), closerList, nil
}

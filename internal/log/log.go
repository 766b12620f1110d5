package log

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

var (
	sugar      *zap.SugaredLogger
	loggerOnce sync.Once
	atomic     zap.AtomicLevel
)

// initLogger builds the global zap logger writing to stderr.
// Console encoding with ISO8601 timestamps keeps CLI output readable
// while preserving structured key-value pairs.
func initLogger() {
	loggerOnce.Do(func() {
		atomic = zap.NewAtomicLevelAt(zapcore.InfoLevel)

		cfg := zap.NewProductionConfig()
		cfg.Level = atomic
		cfg.Encoding = "console"
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
		cfg.DisableStacktrace = true

		logger, err := cfg.Build()
		if err != nil {
			logger = zap.NewExample()
		}
		sugar = logger.Sugar()
	})
}

func SetLevel(l Level) {
	initLogger()
	switch l {
	case LevelDebug:
		atomic.SetLevel(zapcore.DebugLevel)
	case LevelInfo:
		atomic.SetLevel(zapcore.InfoLevel)
	case LevelError:
		atomic.SetLevel(zapcore.ErrorLevel)
	}
}

func Debug(msg string, kv ...any) {
	initLogger()
	sugar.Debugw(msg, kv...)
}

func Info(msg string, kv ...any) {
	initLogger()
	sugar.Infow(msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	initLogger()
	// Prepend error into key-value list.
	extended := append([]any{zap.Error(err)}, kv...)
	sugar.Errorw(msg, extended...)
}

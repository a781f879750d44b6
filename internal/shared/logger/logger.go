package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log *zap.Logger
	mu  sync.Mutex
)

// Init initializes the package logger. Safe to call again to switch
// between production and debug output (debug mode uses the console
// encoder and enables Debug level).
func Init(debug bool) {
	mu.Lock()
	defer mu.Unlock()

	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	built, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		// zap's default configs never fail to build; fall back just in case.
		built = zap.NewNop()
	}

	if log != nil {
		_ = log.Sync()
	}
	log = built
}

func get() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if log == nil {
		log = zap.NewNop()
	}
	return log
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	_ = get().Sync()
}

func Debug(msg string, fields ...zap.Field) {
	get().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	get().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	get().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	get().Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	get().Fatal(msg, fields...)
}

package logger

import (
	"errors"
	"os"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const levelEnv = "MDRDR_LOG_LEVEL"

var Logger = getLogger()

func getLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(ParseLevel(os.Getenv(levelEnv)))
	newLogger, err := config.Build(
		zap.AddStacktrace(zap.ErrorLevel),
		zap.AddCallerSkip(1),
	)
	if err != nil {
		return zap.NewNop()
	}

	return newLogger
}

// ParseLevel 将配置/环境变量中的级别字符串转换为 zap 级别，未知值按 warn 处理
func ParseLevel(logLevel string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(logLevel)) {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	case "dpanic":
		return zap.DPanicLevel
	case "panic":
		return zap.PanicLevel
	case "fatal":
		return zap.FatalLevel
	default:
		return zap.WarnLevel
	}
}

// With 返回携带固定字段的子 logger，调用方直接使用，不经过本包的 CallerSkip
func With(fields ...zap.Field) *zap.Logger {
	return Logger.WithOptions(zap.AddCallerSkip(-1)).With(fields...)
}

func Error(msg string, fields ...zap.Field) {
	Logger.Error(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Logger.Warn(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	Logger.Info(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	Logger.Debug(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	Logger.Fatal(msg, fields...)
}

func Sync() {
	err := Logger.Sync()
	if err != nil && !errors.Is(err, syscall.ENOTTY) && err.Error() != "sync /dev/stderr: invalid argument" {
		Logger.Error("zLog Sync", zap.Any("err", err))
		return
	}
}

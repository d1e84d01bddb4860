package logger

import (
	"os"

	"go.uber.org/zap"
)

type Logger interface {
	Info(msg string, values ...any)
	Warn(msg string, values ...any)
	Error(msg string, values ...any)
	Debug(msg string, values ...any)
	Panic(message string, values ...any)
	Fatal(error error, values ...any)
	Printf(format string, args ...interface{})
}

func init() {
	if _, err := NewLogger(configFor(os.Getenv("LOG_ENV"))); err != nil {
		panic(err)
	}
}

// configFor picks the zap preset for LOG_ENV. "quiet" keeps only errors, which is what
// the console binary uses so log lines do not interleave with table output.
func configFor(env string) zap.Config {
	switch env {
	case "production":
		return zap.NewProductionConfig()
	case "quiet":
		c := zap.NewProductionConfig()
		c.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
		return c
	default:
		return zap.NewDevelopmentConfig()
	}
}

// Reconfigure swaps the package logger for one built from the LOG_ENV style preset.
func Reconfigure(env string) error {
	_, err := NewLogger(configFor(env))
	return err
}

func Info(msg string, values ...any) {
	GetLogger().Info(msg, values...)
}

func Warn(msg string, values ...any) {
	GetLogger().Warn(msg, values...)
}

func Error(msg string, values ...any) {
	GetLogger().Error(msg, values...)
}

func Debug(msg string, values ...any) {
	GetLogger().Debug(msg, values...)
}

func Panic(msg string, values ...any) {
	GetLogger().Panic(msg, values...)
}

func Fatal(error error, values ...any) {
	GetLogger().Fatal(error, values...)
}

func Sync() {
	_ = GetLogger().log.Sync()
}

// Package logger builds the application's zap logger and bridges it to
// the slim port.Logger interface the app layer depends on.
package logger

import (
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// New builds a production JSON zap logger at the given level and installs
// a zapslog bridge as the slog default so third-party code logging via
// slog lands in the same stream.
func New(levelStr string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(levelStr))

	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	slog.SetDefault(slog.New(zapslog.NewHandler(zl.Core())))
	return zl, nil
}

func parseLevel(levelStr string) zapcore.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "INFO":
		return zapcore.InfoLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

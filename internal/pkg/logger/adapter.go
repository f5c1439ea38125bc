package logger

import (
	"whalewatch/internal/app/port"

	"go.uber.org/zap"
)

// zapAdapter implements port.Logger over a zap SugaredLogger so services
// can log key/value pairs without importing zap directly.
type zapAdapter struct {
	sugar *zap.SugaredLogger
}

// NewZapAdapter creates a port.Logger named for the owning component.
func NewZapAdapter(zl *zap.Logger, name string) port.Logger {
	return &zapAdapter{sugar: zl.Named(name).Sugar()}
}

func (a *zapAdapter) Info(msg string, args ...any)  { a.sugar.Infow(msg, args...) }
func (a *zapAdapter) Debug(msg string, args ...any) { a.sugar.Debugw(msg, args...) }
func (a *zapAdapter) Warn(msg string, args ...any)  { a.sugar.Warnw(msg, args...) }
func (a *zapAdapter) Error(msg string, args ...any) { a.sugar.Errorw(msg, args...) }

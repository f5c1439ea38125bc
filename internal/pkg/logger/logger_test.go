package logger

import (
	"log/slog"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_BuildsLoggerAndInstallsSlogBridge(t *testing.T) {
	zl, err := New("debug")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer zl.Sync()

	if !zl.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug level requested but not enabled")
	}

	// slog routes through the zap core after New.
	if !slog.Default().Enabled(nil, slog.LevelDebug) {
		t.Error("slog default not bridged to the zap core")
	}

	// Logging through the adapter must not panic with key/value args.
	l := NewZapAdapter(zl, "test")
	l.Info("message", "key", "value")
	l.Debug("message", "count", 3)
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"Error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"unknown", zapcore.InfoLevel},
	}
	for _, c := range cases {
		if got := parseLevel(c.in); got != c.want {
			t.Errorf("parseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

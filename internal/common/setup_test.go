package common

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitializeLogger_ReplacesGlobal(t *testing.T) {
	logger, cleanup := InitializeLogger()
	defer cleanup()
	defer zap.ReplaceGlobals(zap.NewNop())

	if zap.L() != logger {
		t.Fatalf("Expected zap.L() to be the initialized logger")
	}
	if !zap.L().Core().Enabled(zapcore.InfoLevel) {
		t.Errorf("Expected global logger to emit info logs")
	}
}

package kit

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the JSON production logger shared by every command.
// An unparsable level falls back to info.
func NewLogger(service, level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.InitialFields = map[string]any{"service": service}

	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. Production uses the JSON encoder;
// everything else the development console encoder. The returned level can be
// changed while the process runs.
func NewLogger(environment, level string) (*zap.Logger, zap.AtomicLevel, error) {
	atom := zap.NewAtomicLevel()
	if level != "" {
		if err := atom.UnmarshalText([]byte(level)); err != nil {
			return nil, atom, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = atom

	logger, err := cfg.Build()
	if err != nil {
		return nil, atom, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, atom, nil
}

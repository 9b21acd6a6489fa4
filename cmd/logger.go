package cmd

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Mohsinsiddi/neondash/internal/config"
)

// newLogger writes JSON logs to the configured file. The terminal belongs to
// the dashboard, so nothing is logged to stderr.
func newLogger(lc config.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevel()
	if err := zc.Level.UnmarshalText([]byte(lc.Level)); err != nil {
		return nil, err
	}

	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if err := os.MkdirAll(filepath.Dir(lc.File), 0o700); err != nil {
		return nil, err
	}
	zc.OutputPaths = []string{lc.File}
	zc.ErrorOutputPaths = []string{lc.File}

	return zc.Build()
}

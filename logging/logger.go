// Package logging builds the process logger.
package logging

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger at the named level. Errors and above go to stderr,
// everything else to stdout.
func New(level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", level)
	}
	return NewWithWriters(lvl, zapcore.Lock(os.Stdout), zapcore.Lock(os.Stderr)), nil
}

// NewWithWriters is New with explicit sinks.
func NewWithWriters(lvl zapcore.Level, stdout, stderr zapcore.WriteSyncer) *zap.SugaredLogger {
	isErrorLevel := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= zapcore.ErrorLevel && l >= lvl
	})
	isInfoLevel := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l < zapcore.ErrorLevel && l >= lvl
	})

	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = zapcore.RFC3339TimeEncoder
	encoder := zapcore.NewConsoleEncoder(config)

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, stderr, isErrorLevel),
		zapcore.NewCore(encoder, stdout, isInfoLevel),
	)
	return zap.New(core, zap.AddCaller()).Sugar()
}

// OrNop returns log, or a logger that discards everything when log is nil.
func OrNop(log *zap.SugaredLogger) *zap.SugaredLogger {
	if log == nil {
		return zap.NewNop().Sugar()
	}
	return log
}

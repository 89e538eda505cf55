// Package logging builds the zap logger used by the command line and adapts
// it to kong.Logger.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fivetwenty-io/kongcli/pkg/kong"
)

// New returns a console logger writing to stderr. Verbose lowers the level
// to debug; otherwise only warnings and errors are shown.
func New(verbose bool) (*zap.Logger, error) {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.DisableStacktrace = !verbose

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	return logger, nil
}

// MustNew is New that falls back to a no-op logger.
func MustNew(verbose bool) *zap.Logger {
	logger, err := New(verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)

		return zap.NewNop()
	}

	return logger
}

// Adapter exposes a zap logger as kong.Logger.
type Adapter struct {
	logger *zap.Logger
}

var _ kong.Logger = (*Adapter)(nil)

// NewAdapter wraps logger. A nil logger discards everything.
func NewAdapter(logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Adapter{logger: logger}
}

// Debug implements kong.Logger.
func (a *Adapter) Debug(msg string, fields map[string]interface{}) {
	a.logger.Debug(msg, toFields(fields)...)
}

// Info implements kong.Logger.
func (a *Adapter) Info(msg string, fields map[string]interface{}) {
	a.logger.Info(msg, toFields(fields)...)
}

// Warn implements kong.Logger.
func (a *Adapter) Warn(msg string, fields map[string]interface{}) {
	a.logger.Warn(msg, toFields(fields)...)
}

// Error implements kong.Logger.
func (a *Adapter) Error(msg string, fields map[string]interface{}) {
	a.logger.Error(msg, toFields(fields)...)
}

// Zap returns the wrapped logger.
func (a *Adapter) Zap() *zap.Logger {
	return a.logger
}

func toFields(fields map[string]interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for key, value := range fields {
		switch typed := value.(type) {
		case string:
			out = append(out, zap.String(key, typed))
		case int:
			out = append(out, zap.Int(key, typed))
		case error:
			out = append(out, zap.NamedError(key, typed))
		default:
			out = append(out, zap.Any(key, typed))
		}
	}

	return out
}

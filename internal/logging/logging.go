// Package logging builds the zap loggers used by the CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures a CLI logger.
type Options struct {
	// Verbose enables debug logs.
	Verbose bool
	// JSON switches from the console encoder to the JSON encoder.
	JSON bool
	// Level overrides the level implied by Verbose ("debug", "info", "warn", "error").
	Level string
	// Output defaults to stderr so templates written to stdout stay clean.
	Output io.Writer
}

func (opts Options) encoder() zapcore.Encoder {
	if opts.JSON {
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	return zapcore.NewConsoleEncoder(cfg)
}

func (opts Options) level() (zapcore.Level, error) {
	if opts.Level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(strings.ToLower(opts.Level))); err != nil {
			return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", opts.Level)
		}
		return lvl, nil
	}
	if opts.Verbose {
		return zapcore.DebugLevel, nil
	}
	return zapcore.InfoLevel, nil
}

// New returns a logger writing to opts.Output.
func New(opts Options) (*zap.Logger, error) {
	lvl, err := opts.level()
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	core := zapcore.NewCore(opts.encoder(), zapcore.AddSync(out), zap.NewAtomicLevelAt(lvl))
	return zap.New(core), nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}

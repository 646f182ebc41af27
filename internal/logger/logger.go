// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package logger

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	flagLogEncoding = "log-encoding"
	flagLogLevel    = "log-level"
)

var validLogEncodings = []string{"json", "console"}
var validLogLevels = []string{"debug", "info", "error"}

// Options contains the configuration options for the logger.
type Options struct {
	LogEncoding string
	LogLevel    string
}

// BindFlags will parse the given pflag.FlagSet for logger option flags and
// set the Options accordingly.
func (o *Options) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.LogEncoding, flagLogEncoding, "console",
		"Log encoding format. Can be 'json' or 'console'.")
	fs.StringVar(&o.LogLevel, flagLogLevel, "info",
		"Log verbosity level. Can be one of 'debug', 'info', 'error'.")
}

// Validate checks that the encoding and level are supported.
func (o Options) Validate() error {
	if !slices.Contains(validLogEncodings, o.LogEncoding) {
		return fmt.Errorf("invalid --%s %q, must be one of: %s",
			flagLogEncoding, o.LogEncoding, strings.Join(validLogEncodings, ", "))
	}
	if !slices.Contains(validLogLevels, o.LogLevel) {
		return fmt.Errorf("invalid --%s %q, must be one of: %s",
			flagLogLevel, o.LogLevel, strings.Join(validLogLevels, ", "))
	}
	return nil
}

// NewLogger returns a logger configured with the given Options
// that writes to stderr. Invalid options fall back to the defaults.
func NewLogger(opts Options) logr.Logger {
	return NewLoggerTo(os.Stderr, opts)
}

// NewLoggerTo returns a logger configured with the given Options
// that writes to w.
func NewLoggerTo(w io.Writer, opts Options) logr.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch opts.LogEncoding {
	case "json":
		encoder = zapcore.NewJSONEncoder(encCfg)
	default:
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	level := zapcore.InfoLevel
	switch opts.LogLevel {
	case "debug":
		level = zapcore.DebugLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.NewAtomicLevelAt(level))
	return zapr.NewLogger(zap.New(core))
}

// Package logging builds the process logger: a zap core for the console and
// an optional second core that appends errors to a plain text file. Callers
// receive a logr.Logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"unicode"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn or error. Empty means info.
	Level string
	// Format is console or json. Empty means console.
	Format string
	// ErrorLog is the path errors are appended to. Empty disables it.
	ErrorLog string
	// Output receives the main log stream. Nil means stderr.
	Output io.Writer
}

// New returns a logger and a function that flushes and closes its sinks.
func New(opts Options) (logr.Logger, func() error, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return logr.Discard(), nil, fmt.Errorf("invalid log level: %w", err)
		}
		level = parsed
	}

	var out io.Writer = os.Stderr
	if opts.Output != nil {
		out = opts.Output
	}

	encoder, err := newEncoder(opts.Format)
	if err != nil {
		return logr.Discard(), nil, err
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(out)), level),
	}

	closers := []func() error{}
	if opts.ErrorLog != "" {
		// #nosec G304
		f, err := os.OpenFile(opts.ErrorLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return logr.Discard(), nil, fmt.Errorf("failed to open error log: %w", err)
		}
		cores = append(cores, newErrorLogCore(f))
		closers = append(closers, f.Close)
	}

	zl := zap.New(zapcore.NewTee(cores...))
	cleanup := func() error {
		_ = zl.Sync()
		var firstErr error
		for _, c := range closers {
			if err := c(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	return zapr.NewLogger(zl), cleanup, nil
}

func newEncoder(format string) (zapcore.Encoder, error) {
	switch format {
	case "", "console":
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewConsoleEncoder(cfg), nil
	case "json":
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(cfg), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// newErrorLogCore writes "timestamp - message - {fields}" lines at error level.
func newErrorLogCore(w io.Writer) zapcore.Core {
	cfg := zapcore.EncoderConfig{
		TimeKey:          "ts",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " - ",
	}
	return zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.Lock(zapcore.AddSync(NewASCIIWriter(w))),
		zapcore.ErrorLevel,
	)
}

// ASCIIWriter drops every non-ASCII rune before writing.
type ASCIIWriter struct {
	w io.Writer
}

// NewASCIIWriter wraps w.
func NewASCIIWriter(w io.Writer) *ASCIIWriter {
	return &ASCIIWriter{w: w}
}

func (a *ASCIIWriter) Write(p []byte) (int, error) {
	stripped, _, err := transform.Bytes(runes.Remove(runes.Predicate(isNonASCII)), p)
	if err != nil {
		return 0, err
	}
	if _, err := a.w.Write(stripped); err != nil {
		return 0, err
	}
	return len(p), nil
}

func isNonASCII(r rune) bool {
	return r > unicode.MaxASCII
}

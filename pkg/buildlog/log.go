// Package buildlog carries the logger through the context and renders log events for humans.
package buildlog

import (
	"context"
	"io"
	"os"

	"github.com/aidarkhanov/nanoid"
	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

type logKey struct{}

var nopLogger = zerolog.Nop()

// Log returns the logger attached to ctx or a disabled logger if there is none
func Log(ctx context.Context) *zerolog.Logger {
	logger, ok := ctx.Value(logKey{}).(*zerolog.Logger)
	if !ok {
		return &nopLogger
	}

	return logger
}

// WithLogger attaches the given logger to the context
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, logKey{}, logger)
}

// Options control how New builds the logger
type Options struct {
	Level zerolog.Level
	JSON  bool
	// Root is used to shorten paths in console output
	Root    string
	NoColor bool
}

// New builds the logger used by the CLI. Every logger gets its own run ID.
func New(out io.Writer, opts Options) zerolog.Logger {
	var writer io.Writer = out
	if !opts.JSON {
		console := NewConsoleWriter(out)
		console.Root = opts.Root
		console.NoColor = opts.NoColor
		writer = console
	}

	return zerolog.New(writer).
		Level(opts.Level).
		With().
		Timestamp().
		Str("run", nanoid.New()).
		Logger()
}

func debugEnabled() bool {
	return os.Getenv("SGE_DEBUG") != ""
}

func init() {
	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		return eris.ToString(err, debugEnabled())
	}
}

// PrintTask prints a top level progress banner
func PrintTask(msg string) {
	colorstring.Fprintf(os.Stderr, "[blue][bold]==>[default] %s\n", msg)
}

// PrintSubtask prints a nested progress banner
func PrintSubtask(msg string) {
	colorstring.Fprintf(os.Stderr, "[green][bold]  ->[reset] %s\n", msg)
}

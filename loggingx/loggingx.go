// Package loggingx wires up the gateway's structured logger: tinted,
// leveled console output for interactive use, matching the rest of the
// ambient stack's preference for a ready-made console handler over a
// hand-rolled log/slog.Handler.
package loggingx

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Options configures New.
type Options struct {
	Level     slog.Level
	Writer    io.Writer
	NoColor   bool
	AddSource bool
}

// New builds a *slog.Logger backed by tint's console handler. A zero-value
// Options yields sane interactive defaults: info level, stderr, colored.
func New(opts Options) *slog.Logger {
	if opts.Writer == nil {
		opts.Writer = os.Stderr
	}
	handler := tint.NewHandler(opts.Writer, &tint.Options{
		Level:      opts.Level,
		TimeFormat: time.Kitchen,
		NoColor:    opts.NoColor,
		AddSource:  opts.AddSource,
	})
	return slog.New(handler)
}

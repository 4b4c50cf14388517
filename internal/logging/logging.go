// Package logging provides structured logging setup for the ort service.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Setup initializes the default slog logger.
// Dev mode uses colored text on stderr; prod uses JSON on stdout.
func Setup(devMode bool) {
	if devMode {
		slog.SetDefault(slog.New(NewHandler(os.Stderr, true)))
		return
	}
	slog.SetDefault(slog.New(NewHandler(os.Stdout, false)))
}

// NewHandler builds the handler Setup installs, writing to w.
func NewHandler(w io.Writer, devMode bool) slog.Handler {
	if devMode {
		return tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
}

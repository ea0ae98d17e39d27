// Package logging provides structured logging setup for the forum notes
// service. Every record carries service=forum-notes so note and mail
// events can be picked out of a shared log stream.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// ServiceName is attached to every log record.
const ServiceName = "forum-notes"

// Setup initializes the default slog logger.
// Dev mode uses human-readable text at debug level; prod uses JSON.
func Setup(devMode bool) {
	slog.SetDefault(slog.New(newHandler(os.Stdout, devMode)))
}

func newHandler(w io.Writer, devMode bool) slog.Handler {
	var handler slog.Handler
	if devMode {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return handler.WithAttrs([]slog.Attr{slog.String("service", ServiceName)})
}

// JSON logger setup shared by all binaries.
package logging

import (
	"log/slog"
	"os"
)

func New(service string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "timestamp"
			}
			return a
		},
	}).WithAttrs([]slog.Attr{
		slog.String("service", service),
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

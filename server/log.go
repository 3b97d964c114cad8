package server

import (
	"log/slog"
	"os"

	"github.com/topi314/clubagenda/internal/xslog"
)

// SetupLogger installs the default logger. Request logs of the health and metrics endpoints are dropped.
func SetupLogger(cfg LogConfig) {
	opts := &slog.HandlerOptions{
		AddSource: cfg.AddSource,
		Level:     cfg.Level,
	}

	var handler slog.Handler
	switch cfg.Format {
	case LogFormatJSON:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(xslog.NewFilterHandler(handler, xslog.DropPaths("/metrics", "/healthz"))))
}

package xslog

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDropPaths(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewFilterHandler(slog.NewTextHandler(&buf, nil), DropPaths("/metrics", "/healthz")))

	logger.Info("Handled request", slog.String("path", "/metrics"))
	assert.Empty(t, buf.String())

	logger.Info("Handled request", slog.String("path", "/api/agenda"))
	assert.Contains(t, buf.String(), "path=/api/agenda")

	buf.Reset()
	logger.With(slog.String("component", "booking")).Info("Booked role")
	assert.Contains(t, buf.String(), "Booked role")
}

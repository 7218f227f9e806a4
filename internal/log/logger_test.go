package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBufferLogger(buf *bytes.Buffer, level slog.Level) *Logger {
	return New(Config{
		Component: ComponentStore,
		Handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: level}),
	})
}

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, slog.LevelInfo)

	logger.Info("saved", FieldRevision, 3)
	logger.WithComponent(ComponentHTTP).Warn("slow")
	logger.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if assert.Len(t, lines, 2) {
		assert.Contains(t, lines[0], "component=store")
		assert.Contains(t, lines[0], "revision=3")
		assert.Contains(t, lines[1], "component=http")
		assert.NotContains(t, lines[1], "component=store")
	}
}

func TestLoggerLevelMethods(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, slog.LevelDebug)

	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if assert.Len(t, lines, 4) {
		for i, level := range []string{"DEBUG", "INFO", "WARN", "ERROR"} {
			assert.Contains(t, lines[i], "level="+level)
			assert.Contains(t, lines[i], "component=store")
		}
	}
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, ComponentApp, FromContext(context.Background()).Component())

	logger := Discard().WithComponent(ComponentAdvisor)
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
}

func TestFieldsToSliceIsOrdered(t *testing.T) {
	got := NewFields().WithOperation("create").WithClientIP("10.0.0.1").WithRequestID("r1").ToSlice()
	assert.Equal(t, []any{FieldClientIP, "10.0.0.1", FieldOperation, "create", FieldRequestID, "r1"}, got)
}

func TestLogHTTPEndLevelFollowsStatus(t *testing.T) {
	var buf bytes.Buffer
	events := NewStructuredLogger(newBufferLogger(&buf, slog.LevelDebug))
	r := httptest.NewRequest("GET", "/api/stats", nil)

	events.LogHTTPEnd(context.Background(), r, 200, 1, "")
	events.LogHTTPEnd(context.Background(), r, 404, 1, "")
	events.LogHTTPEnd(context.Background(), r, 503, 1, "")

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "level=ERROR")
}

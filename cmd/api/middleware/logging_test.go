package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLogging(t *testing.T) {
	t.Run("logs method, path and status", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})

		req := httptest.NewRequest(http.MethodGet, "/api/graph", nil)
		rec := httptest.NewRecorder()

		Logging(logger)(handler).ServeHTTP(rec, req)

		line := buf.String()
		if !strings.Contains(line, "method=GET") {
			t.Errorf("expected method in log line, got %q", line)
		}
		if !strings.Contains(line, "path=/api/graph") {
			t.Errorf("expected path in log line, got %q", line)
		}
		if !strings.Contains(line, "status=418") {
			t.Errorf("expected status in log line, got %q", line)
		}
	})

	t.Run("defaults to 200 when the handler never writes a header", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		Logging(logger)(handler).ServeHTTP(rec, req)

		if !strings.Contains(buf.String(), "status=200") {
			t.Errorf("expected status 200 in log line, got %q", buf.String())
		}
	})
}

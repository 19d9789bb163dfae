package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{path: "/health/live", expected: "/health/live"},
		{path: "/metrics", expected: "/metrics"},
		{path: "/api/v1/hearings/upcoming", expected: "/api/v1/hearings/upcoming"},
		{path: "/api/v1/state", expected: "/api/v1/state"},
		{path: "/api/v1/hearings/118388", expected: "other"},
		{path: "/wp-login.php", expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.expected {
				t.Errorf("normalizePath(%q) = %q, ожидается %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		status    int
		wantLevel string
	}{
		{name: "успешный запрос", path: "/api/v1/state", status: http.StatusOK, wantLevel: "INFO"},
		{name: "ошибка клиента", path: "/api/v1/x", status: http.StatusNotFound, wantLevel: "WARN"},
		{name: "ошибка сервера", path: "/api/v1/state", status: http.StatusServiceUnavailable, wantLevel: "ERROR"},
		{name: "проба", path: "/health/live", status: http.StatusOK, wantLevel: "DEBUG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			var entry map[string]any
			if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
				t.Fatalf("разбор записи лога: %v (%q)", err, buf.String())
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %v, ожидается %s", entry["level"], tt.wantLevel)
			}
			if entry["status"] != float64(tt.status) {
				t.Errorf("status = %v, ожидается %d", entry["status"], tt.status)
			}
			if entry["bytes"] != float64(4) {
				t.Errorf("bytes = %v, ожидается 4", entry["bytes"])
			}
			if entry["component"] != "http" {
				t.Errorf("component = %v, ожидается http", entry["component"])
			}
		})
	}
}

func TestMetricsMiddleware(t *testing.T) {
	handler := MetricsMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/state", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("код = %d, ожидается %d", rec.Code, http.StatusTeapot)
	}

	// Счётчик с лейблами запроса существует после вызова
	c, err := httpRequestsTotal.GetMetricWithLabelValues(http.MethodGet, "/api/v1/state", "418")
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues: %v", err)
	}
	if !strings.Contains(c.Desc().String(), "hw_http_requests_total") {
		t.Errorf("Desc() = %s", c.Desc().String())
	}
}

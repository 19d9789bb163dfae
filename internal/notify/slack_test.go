package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// setupMockSlack создаёт mock Slack Web API.
func setupMockSlack(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// TestSlackClient_PostMessage проверяет запрос chat.postMessage.
func TestSlackClient_PostMessage(t *testing.T) {
	server := setupMockSlack(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat.postMessage" || r.Method != http.MethodPost {
			t.Errorf("запрос %s %s, ожидается POST /chat.postMessage", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer xoxb-test" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}

		var req postMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("декодирование тела: %v", err)
		}
		if req.Channel != "#hearings" || req.Text != "New upcoming hearings on 2024-06-01" {
			t.Errorf("запрос = %+v", req)
		}
		if len(req.Blocks) != 2 {
			t.Errorf("len(blocks) = %d, ожидается 2", len(req.Blocks))
		}
		w.Write([]byte(`{"ok":true,"ts":"1.2"}`))
	})

	client := NewSlackClient(server.URL+"/", "xoxb-test", 0, testLogger())
	d := Format([]Entry{{Date: date("2024-06-01"), Committee: "C", Title: "T"}})
	blocks, _ := d.Get("2024-06-01")

	if err := client.PostMessage(context.Background(), "#hearings", DailyText("2024-06-01"), blocks); err != nil {
		t.Fatalf("PostMessage() ошибка: %v", err)
	}
}

// TestSlackClient_NotOK проверяет ошибку Slack при ok=false.
func TestSlackClient_NotOK(t *testing.T) {
	server := setupMockSlack(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	})

	client := NewSlackClient(server.URL, "xoxb-test", 0, testLogger())
	err := client.PostMessage(context.Background(), "#missing", "x", nil)

	var se *SlackError
	if !errors.As(err, &se) {
		t.Fatalf("ожидалась *SlackError, получено %v", err)
	}
	if se.Code != "channel_not_found" {
		t.Errorf("Code = %q, ожидается channel_not_found", se.Code)
	}
}

// TestSlackClient_RateLimited проверяет повтор после 429.
func TestSlackClient_RateLimited(t *testing.T) {
	var calls atomic.Int32
	server := setupMockSlack(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	})

	client := NewSlackClient(server.URL, "xoxb-test", 1, testLogger())
	if err := client.PostMessage(context.Background(), "#c", "x", nil); err != nil {
		t.Fatalf("PostMessage() ошибка: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("запросов = %d, ожидается 2", calls.Load())
	}
}

// TestSlackClient_HTTPError проверяет не-200 ответ.
func TestSlackClient_HTTPError(t *testing.T) {
	server := setupMockSlack(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	client := NewSlackClient(server.URL, "xoxb-test", 3, testLogger())
	if err := client.PostMessage(context.Background(), "#c", "x", nil); err == nil {
		t.Error("ожидалась ошибка для 502")
	}
}

// TestStdoutPoster проверяет вывод сообщения JSON-строкой.
func TestStdoutPoster(t *testing.T) {
	var buf bytes.Buffer
	p := NewStdoutPoster(&buf)

	if err := p.PostMessage(context.Background(), "#c", TextNoNew, nil); err != nil {
		t.Fatalf("PostMessage() ошибка: %v", err)
	}
	got := strings.TrimSpace(buf.String())
	if got != `{"channel":"#c","text":"No new upcoming hearings"}` {
		t.Errorf("вывод = %s", got)
	}
}

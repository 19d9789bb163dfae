package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Poster — получатель сообщений (канал доставки).
type Poster interface {
	PostMessage(ctx context.Context, channel, text string, blocks []Block) error
}

// SlackError — ответ Slack Web API с ok=false.
type SlackError struct {
	Method string
	Code   string
}

func (e *SlackError) Error() string {
	return fmt.Sprintf("slack %s: %s", e.Method, e.Code)
}

// postMessageRequest — тело chat.postMessage.
type postMessageRequest struct {
	Channel string  `json:"channel"`
	Text    string  `json:"text"`
	Blocks  []Block `json:"blocks,omitempty"`
}

// apiResponse — общая часть ответа Slack Web API.
type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// SlackClient — клиент Slack Web API (chat.postMessage).
type SlackClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	maxRetries int
	logger     *slog.Logger
}

// NewSlackClient создаёт клиент Slack.
// baseURL — корень Web API (https://slack.com/api).
func NewSlackClient(baseURL, token string, maxRetries int, logger *slog.Logger) *SlackClient {
	return &SlackClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		maxRetries: maxRetries,
		logger:     logger.With(slog.String("component", "slack_client")),
	}
}

// PostMessage публикует сообщение в канал.
// 429 повторяется после Retry-After, не более maxRetries раз.
func (c *SlackClient) PostMessage(ctx context.Context, channel, text string, blocks []Block) error {
	body, err := json.Marshal(postMessageRequest{Channel: channel, Text: text, Blocks: blocks})
	if err != nil {
		return fmt.Errorf("кодирование сообщения: %w", err)
	}

	for attempt := 0; ; attempt++ {
		wait, err := c.post(ctx, "chat.postMessage", body)
		if err == nil {
			c.logger.Debug("Сообщение опубликовано",
				slog.String("channel", channel),
				slog.Int("blocks", len(blocks)),
			)
			return nil
		}
		if wait == 0 || attempt >= c.maxRetries {
			return err
		}

		c.logger.Warn("Slack ограничил частоту запросов, повтор",
			slog.Duration("retry_after", wait),
			slog.Int("attempt", attempt+1),
		)
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// post выполняет вызов метода. Ненулевая задержка — запрос можно повторить.
func (c *SlackClient) post(ctx context.Context, method string, body []byte) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("создание запроса %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("запрос %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		if secs <= 0 {
			secs = 1
		}
		return time.Duration(secs) * time.Second, &SlackError{Method: method, Code: "ratelimited"}
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("slack %s вернул статус %d: %s", method, resp.StatusCode, string(data))
	}

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("декодирование ответа %s: %w", method, err)
	}
	if !out.OK {
		return 0, &SlackError{Method: method, Code: out.Error}
	}
	return 0, nil
}

// StdoutPoster печатает сообщения как JSON (когда токен Slack не задан).
type StdoutPoster struct {
	w io.Writer
}

// NewStdoutPoster создаёт печатающий получатель.
func NewStdoutPoster(w io.Writer) *StdoutPoster {
	return &StdoutPoster{w: w}
}

// PostMessage записывает сообщение одной строкой JSON.
func (p *StdoutPoster) PostMessage(_ context.Context, channel, text string, blocks []Block) error {
	data, err := json.Marshal(postMessageRequest{Channel: channel, Text: text, Blocks: blocks})
	if err != nil {
		return fmt.Errorf("кодирование сообщения: %w", err)
	}
	if _, err := fmt.Fprintln(p.w, string(data)); err != nil {
		return fmt.Errorf("вывод сообщения: %w", err)
	}
	return nil
}

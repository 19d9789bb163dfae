// Пакет congress — HTTP-клиент congress.gov API v3.
// Операции: ListCandidates (постраничный листинг слушаний и заседаний комитетов)
// и FetchDetail (detail-ответ одного кандидата как есть).
// Повторяет запросы при 429 (Retry-After) и 5xx с экспоненциальной задержкой.
package congress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bigkaa/hearingwatch/internal/domain/model"
)

// endpoint — путь листинга и имя массива в ответе для вида записи.
type endpoint struct {
	path     string
	arrayKey string
}

var endpoints = map[string]endpoint{
	"hearing": {path: "/hearing", arrayKey: "hearings"},
	"meeting": {path: "/committee-meeting", arrayKey: "committeeMeetings"},
}

// Config — параметры клиента.
type Config struct {
	// BaseURL — базовый URL API (например, https://api.congress.gov/v3)
	BaseURL string
	// APIKey — ключ api.data.gov, передаётся заголовком X-Api-Key
	APIKey string
	// Congress — номер созыва (0 — все созывы)
	Congress int
	// PageSize — размер страницы листинга
	PageSize int
	// MaxRetries — количество повторов при 429/5xx
	MaxRetries int
	// Timeout — таймаут одного запроса
	Timeout time.Duration
}

// listItem — элемент листинга. eventId и jacketNumber приходят
// то строкой, то числом.
type listItem struct {
	EventID      flexID `json:"eventId"`
	JacketNumber flexID `json:"jacketNumber"`
	URL          string `json:"url"`
}

// pageResponse — страница листинга.
type pageResponse struct {
	Items      []listItem
	Pagination struct {
		Count int    `json:"count"`
		Next  string `json:"next"`
	}
}

// Client — HTTP-клиент congress.gov API.
type Client struct {
	httpClient *http.Client
	cfg        Config
	baseDelay  time.Duration
	logger     *slog.Logger
}

// New создаёт клиент API.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 250
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		baseDelay:  time.Second,
		logger:     logger.With(slog.String("component", "congress_client")),
	}
}

// ListCandidates загружает все страницы листинга для вида kind.
// Любая ошибка возвращается как *FetchError.
func (c *Client) ListCandidates(ctx context.Context, kind string) ([]model.Candidate, error) {
	ep, ok := endpoints[kind]
	if !ok {
		return nil, &FetchError{Kind: kind, Err: ErrUnknownKind}
	}

	var candidates []model.Candidate
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, &FetchError{Kind: kind, Offset: offset, Err: err}
		}

		page, err := c.listPage(ctx, ep, offset)
		if err != nil {
			return nil, &FetchError{Kind: kind, Offset: offset, Err: err}
		}

		for _, item := range page.Items {
			candidates = append(candidates, model.Candidate{
				Kind:         kind,
				EventID:      string(item.EventID),
				JacketNumber: string(item.JacketNumber),
				Locator:      item.URL,
			})
		}

		c.logger.Debug("Страница листинга получена",
			slog.String("kind", kind),
			slog.Int("offset", offset),
			slog.Int("count", len(page.Items)),
			slog.Int("total", page.Pagination.Count),
		)

		offset += len(page.Items)

		// Конец листинга: пустая или неполная страница, либо нет ссылки next
		if len(page.Items) < c.cfg.PageSize || page.Pagination.Next == "" {
			break
		}
	}

	c.logger.Info("Листинг загружен",
		slog.String("kind", kind),
		slog.Int("candidates", len(candidates)),
	)
	return candidates, nil
}

// listPage запрашивает одну страницу листинга.
func (c *Client) listPage(ctx context.Context, ep endpoint, offset int) (*pageResponse, error) {
	path := ep.path
	if c.cfg.Congress > 0 {
		path += "/" + strconv.Itoa(c.cfg.Congress)
	}
	q := url.Values{}
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(c.cfg.PageSize))
	q.Set("offset", strconv.Itoa(offset))

	body, err := c.get(ctx, c.cfg.BaseURL+path+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("декодирование листинга: %w", err)
	}

	page := &pageResponse{}
	if items, ok := raw[ep.arrayKey]; ok {
		if err := json.Unmarshal(items, &page.Items); err != nil {
			return nil, fmt.Errorf("декодирование %s: %w", ep.arrayKey, err)
		}
	}
	if p, ok := raw["pagination"]; ok {
		if err := json.Unmarshal(p, &page.Pagination); err != nil {
			return nil, fmt.Errorf("декодирование pagination: %w", err)
		}
	}
	return page, nil
}

// FetchDetail возвращает тело detail-ответа по локатору кандидата.
// Ошибки возвращаются как *DetailFetchError.
func (c *Client) FetchDetail(ctx context.Context, locator string) ([]byte, error) {
	if locator == "" {
		return nil, &DetailFetchError{Err: errors.New("пустой локатор")}
	}

	u, err := url.Parse(locator)
	if err != nil {
		return nil, &DetailFetchError{Locator: locator, Err: fmt.Errorf("некорректный локатор: %w", err)}
	}
	q := u.Query()
	if q.Get("format") == "" {
		q.Set("format", "json")
		u.RawQuery = q.Encode()
	}

	body, err := c.get(ctx, u.String())
	if err != nil {
		return nil, &DetailFetchError{Locator: locator, Err: err}
	}
	if !json.Valid(body) {
		return nil, &DetailFetchError{Locator: locator, Err: errors.New("ответ не является JSON")}
	}
	return body, nil
}

// get выполняет GET с повторами. Возвращает *APIError для не-2xx ответов.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr *APIError
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(c.backoffDelay(attempt, lastErr))
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("создание запроса: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.cfg.APIKey != "" {
			req.Header.Set("X-Api-Key", c.cfg.APIKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("запрос к API: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("чтение ответа: %w", err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return bytes.TrimSpace(body), nil
		}

		bodyStr := string(body)
		if len(bodyStr) > 512 {
			bodyStr = bodyStr[:512]
		}
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: bodyStr}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			apiErr.retryAfter = resp.Header.Get("Retry-After")
			lastErr = apiErr
			c.logger.Warn("Повтор запроса к API",
				slog.Int("status", resp.StatusCode),
				slog.Int("attempt", attempt+1),
			)
			continue
		}
		return nil, apiErr
	}
	return nil, lastErr
}

// backoffDelay — задержка перед повтором: Retry-After для 429,
// иначе baseDelay * 2^(attempt-1).
func (c *Client) backoffDelay(attempt int, lastErr *APIError) time.Duration {
	if lastErr != nil && lastErr.StatusCode == http.StatusTooManyRequests && lastErr.retryAfter != "" {
		if secs, err := strconv.Atoi(lastErr.retryAfter); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return c.baseDelay * time.Duration(1<<(attempt-1))
}

// flexID принимает JSON-строку или число.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("идентификатор: ожидалась строка или число: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

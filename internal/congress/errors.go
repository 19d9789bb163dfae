package congress

import (
	"errors"
	"fmt"
)

// ErrUnknownKind — вид записи не поддерживается источником.
var ErrUnknownKind = errors.New("неизвестный вид записи")

// APIError — ответ API с не-2xx статусом.
type APIError struct {
	StatusCode int
	// Body — первые 512 байт тела ответа
	Body string

	retryAfter string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// FetchError — ошибка получения листинга. Фатальна для запуска:
// без полного листинга нельзя определить, какие записи новые.
type FetchError struct {
	Kind   string
	Offset int
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("листинг %s (offset=%d): %v", e.Kind, e.Offset, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DetailFetchError — ошибка detail-запроса одного кандидата.
type DetailFetchError struct {
	Locator string
	Err     error
}

func (e *DetailFetchError) Error() string {
	return fmt.Sprintf("detail %s: %v", e.Locator, e.Err)
}

func (e *DetailFetchError) Unwrap() error { return e.Err }

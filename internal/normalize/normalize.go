// Пакет normalize — приведение detail-ответов источника к model.Detail.
// Форма ответа определяется по ключу верхнего уровня, для каждой формы
// есть своя стратегия извлечения полей.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bigkaa/hearingwatch/internal/domain/model"
)

// Поля detail-ответа.
const (
	FieldShape     = "shape"
	FieldTitle     = "title"
	FieldDate      = "date"
	FieldCommittee = "committee"
	FieldURL       = "url"
	FieldStatus    = "status"
)

// Формы detail-ответа.
const (
	ShapeMeeting = "committeeMeeting"
	ShapeHearing = "hearing"
)

var (
	// ErrUnknownShape — форма ответа не распознана.
	ErrUnknownShape = errors.New("неизвестная форма ответа")
	// ErrFieldMissing — обязательное поле отсутствует или пустое.
	ErrFieldMissing = errors.New("обязательное поле отсутствует")
)

// ExtractionError — ошибка извлечения одного поля.
type ExtractionError struct {
	Field string
	Shape string
	Err   error
}

func (e *ExtractionError) Error() string {
	if e.Shape == "" {
		return fmt.Sprintf("извлечение %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("извлечение %s (%s): %v", e.Field, e.Shape, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extractor — набор возможностей одной формы ответа.
// Title, Date и Committee обязательны, URL и Status — нет.
type Extractor interface {
	Shape() string
	Title() (string, error)
	Date() (string, error)
	Committee() (string, error)
	URL() (string, error)
	Status() (string, error)
}

// strategies — ключ верхнего уровня и конструктор стратегии, в порядке проверки.
var strategies = []struct {
	key   string
	build func(json.RawMessage) (Extractor, error)
}{
	{ShapeMeeting, newMeeting},
	{ShapeHearing, newHearing},
}

// Detect определяет форму ответа и возвращает стратегию извлечения.
func Detect(payload []byte) (Extractor, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(payload, &top); err != nil {
		return nil, &ExtractionError{Field: FieldShape, Err: fmt.Errorf("%w: %v", ErrUnknownShape, err)}
	}
	for _, st := range strategies {
		raw, ok := top[st.key]
		if !ok || string(raw) == "null" {
			continue
		}
		ex, err := st.build(raw)
		if err != nil {
			return nil, &ExtractionError{Field: FieldShape, Shape: st.key, Err: err}
		}
		return ex, nil
	}
	return nil, &ExtractionError{Field: FieldShape, Err: ErrUnknownShape}
}

// Normalize извлекает поля записи из detail-ответа.
// Первая ошибка обязательного поля возвращается как *ExtractionError.
func Normalize(payload []byte) (model.Detail, error) {
	ex, err := Detect(payload)
	if err != nil {
		return model.Detail{}, err
	}

	var d model.Detail
	accessors := []struct {
		field string
		get   func() (string, error)
		dst   *string
	}{
		{FieldTitle, ex.Title, &d.Title},
		{FieldDate, ex.Date, &d.RawDate},
		{FieldCommittee, ex.Committee, &d.Committee},
		{FieldURL, ex.URL, &d.URL},
		{FieldStatus, ex.Status, &d.Status},
	}
	for _, a := range accessors {
		v, err := a.get()
		if err != nil {
			return model.Detail{}, &ExtractionError{Field: a.field, Shape: ex.Shape(), Err: err}
		}
		*a.dst = v
	}
	return d, nil
}

// required возвращает ErrFieldMissing для пустой строки.
func required(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrFieldMissing
	}
	return s, nil
}

type named struct {
	Name string `json:"name"`
}

type linked struct {
	URL string `json:"url"`
}

// firstName — первое непустое имя из списка.
func firstName(items []named) string {
	for _, it := range items {
		if s := strings.TrimSpace(it.Name); s != "" {
			return s
		}
	}
	return ""
}

// firstURL — первая непустая ссылка из списка.
func firstURL(items []linked) string {
	for _, it := range items {
		if s := strings.TrimSpace(it.URL); s != "" {
			return s
		}
	}
	return ""
}

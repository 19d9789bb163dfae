package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/bigkaa/hearingwatch/internal/domain/model"
)

// dateLayouts — принимаемые форматы дат, в порядке проверки.
// Форматы с временем сохраняют календарную дату в собственном смещении.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// DateParseError — строка даты не распознана.
type DateParseError struct {
	Raw string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("не удалось разобрать дату %q", e.Raw)
}

// ParseDate возвращает календарную дату (00:00 UTC) из строки в одном
// из известных форматов.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, &DateParseError{Raw: raw}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.DateOf(t), nil
		}
	}
	return time.Time{}, &DateParseError{Raw: raw}
}

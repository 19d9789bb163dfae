// Пакет notify — форматирование уведомлений о слушаниях в блоки Slack
// (rich_text) и их доставка.
// Форматирование не выполняет ввода-вывода: Format возвращает дайджест,
// упорядоченный по дате, доставка выполняется отдельно через Poster.
package notify

import (
	"sort"
	"time"

	"github.com/bigkaa/hearingwatch/internal/domain/model"
)

// headerLayout — формат заголовка дня ("June 1, 2024").
const headerLayout = "January 2, 2006"

// Entry — одна строка уведомления.
type Entry struct {
	Date      time.Time
	Committee string
	Title     string
	URL       string
}

// EntriesFrom преобразует записи в строки уведомления, сохраняя порядок.
func EntriesFrom(hearings []*model.Hearing) []Entry {
	entries := make([]Entry, 0, len(hearings))
	for _, h := range hearings {
		entries = append(entries, Entry{
			Date:      h.EventDate,
			Committee: h.Committee,
			Title:     h.Title,
			URL:       h.URL,
		})
	}
	return entries
}

// Block — блок Slack Block Kit.
type Block struct {
	Type     string    `json:"type"`
	Elements []Element `json:"elements"`
}

// Element — элемент rich_text: секция, список, текст или ссылка.
// Style — объект TextStyle для text, строка "bullet" для rich_text_list.
type Element struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	URL      string    `json:"url,omitempty"`
	Style    any       `json:"style,omitempty"`
	Elements []Element `json:"elements,omitempty"`
}

// TextStyle — оформление текстового элемента.
type TextStyle struct {
	Bold bool `json:"bold,omitempty"`
}

// DayMessage — сообщение одного дня: ISO-дата и блоки.
type DayMessage struct {
	Date   string  `json:"date"`
	Blocks []Block `json:"blocks"`
}

// Digest — сообщения по дням в порядке возрастания даты.
type Digest []DayMessage

// Len возвращает количество дней.
func (d Digest) Len() int { return len(d) }

// Keys возвращает ISO-даты в порядке возрастания.
func (d Digest) Keys() []string {
	keys := make([]string, 0, len(d))
	for _, m := range d {
		keys = append(keys, m.Date)
	}
	return keys
}

// Get возвращает блоки дня по ISO-дате.
func (d Digest) Get(date string) ([]Block, bool) {
	for _, m := range d {
		if m.Date == date {
			return m.Blocks, true
		}
	}
	return nil, false
}

// Format группирует строки по дате. Дни идут по возрастанию,
// строки внутри дня — в порядке входа.
func Format(entries []Entry) Digest {
	byDate := make(map[string][]Entry)
	for _, e := range entries {
		key := e.Date.Format(model.ISODate)
		byDate[key] = append(byDate[key], e)
	}

	keys := make([]string, 0, len(byDate))
	for k := range byDate {
		keys = append(keys, k)
	}
	// ISO-даты сортируются лексикографически
	sort.Strings(keys)

	digest := make(Digest, 0, len(keys))
	for _, k := range keys {
		group := byDate[k]
		digest = append(digest, DayMessage{
			Date:   k,
			Blocks: []Block{dayHeader(group[0].Date), bulletList(group)},
		})
	}
	return digest
}

func dayHeader(date time.Time) Block {
	return Block{
		Type: "rich_text",
		Elements: []Element{{
			Type: "rich_text_section",
			Elements: []Element{{
				Type:  "text",
				Text:  date.Format(headerLayout),
				Style: &TextStyle{Bold: true},
			}},
		}},
	}
}

func bulletList(entries []Entry) Block {
	sections := make([]Element, 0, len(entries))
	for _, e := range entries {
		items := []Element{{
			Type:  "text",
			Text:  e.Committee + " | ",
			Style: &TextStyle{Bold: true},
		}}
		if e.URL != "" {
			items = append(items, Element{Type: "link", URL: e.URL, Text: e.Title})
		} else {
			items = append(items, Element{Type: "text", Text: e.Title})
		}
		sections = append(sections, Element{Type: "rich_text_section", Elements: items})
	}

	return Block{
		Type: "rich_text",
		Elements: []Element{{
			Type:     "rich_text_list",
			Style:    "bullet",
			Elements: sections,
		}},
	}
}

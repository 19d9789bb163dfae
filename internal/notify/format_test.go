package notify

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/bigkaa/hearingwatch/internal/domain/model"
)

func date(s string) time.Time {
	t, err := time.Parse(model.ISODate, s)
	if err != nil {
		panic(err)
	}
	return t
}

// listItems возвращает секции маркированного списка дня.
func listItems(t *testing.T, blocks []Block) []Element {
	t.Helper()
	if len(blocks) != 2 {
		t.Fatalf("len(blocks) = %d, ожидается 2 (заголовок и список)", len(blocks))
	}
	list := blocks[1].Elements[0]
	if list.Type != "rich_text_list" || list.Style != "bullet" {
		t.Fatalf("второй блок = %+v, ожидается rich_text_list/bullet", list)
	}
	return list.Elements
}

// TestFormat_GroupingAndLinks проверяет порядок дней и ссылки.
func TestFormat_GroupingAndLinks(t *testing.T) {
	entries := []Entry{
		{Date: date("2024-06-02"), Committee: "Finance", Title: "Budget Review", URL: "http://x"},
		{Date: date("2024-06-01"), Committee: "Judiciary", Title: "Oversight", URL: ""},
	}

	d := Format(entries)

	keys := d.Keys()
	if len(keys) != 2 || keys[0] != "2024-06-01" || keys[1] != "2024-06-02" {
		t.Fatalf("Keys() = %v, ожидается [2024-06-01 2024-06-02]", keys)
	}

	judiciary, ok := d.Get("2024-06-01")
	if !ok {
		t.Fatal("Get(2024-06-01) не найден")
	}
	items := listItems(t, judiciary)
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, ожидается 1", len(items))
	}
	row := items[0].Elements
	if row[0].Text != "Judiciary | " || row[0].Style.(*TextStyle).Bold != true {
		t.Errorf("метка комитета = %+v, ожидается жирный 'Judiciary | '", row[0])
	}
	if row[1].Type != "text" || row[1].Text != "Oversight" || row[1].URL != "" {
		t.Errorf("заголовок = %+v, ожидается простой текст", row[1])
	}

	finance, _ := d.Get("2024-06-02")
	row = listItems(t, finance)[0].Elements
	if row[1].Type != "link" || row[1].URL != "http://x" || row[1].Text != "Budget Review" {
		t.Errorf("заголовок = %+v, ожидается ссылка на http://x", row[1])
	}
}

// TestFormat_Header проверяет заголовок дня.
func TestFormat_Header(t *testing.T) {
	d := Format([]Entry{{Date: date("2024-06-01"), Committee: "C", Title: "T"}})
	blocks, _ := d.Get("2024-06-01")

	header := blocks[0].Elements[0].Elements[0]
	if header.Text != "June 1, 2024" {
		t.Errorf("заголовок = %q, ожидается 'June 1, 2024'", header.Text)
	}
	if s, ok := header.Style.(*TextStyle); !ok || !s.Bold {
		t.Errorf("заголовок должен быть жирным: %+v", header.Style)
	}
}

// TestFormat_InputOrderWithinDay проверяет порядок строк внутри дня.
func TestFormat_InputOrderWithinDay(t *testing.T) {
	d := Format([]Entry{
		{Date: date("2024-06-01"), Committee: "B", Title: "second"},
		{Date: date("2024-06-03"), Committee: "X", Title: "later"},
		{Date: date("2024-06-01"), Committee: "A", Title: "third"},
	})
	if d.Len() != 2 {
		t.Fatalf("Len() = %d, ожидается 2", d.Len())
	}
	blocks, _ := d.Get("2024-06-01")
	items := listItems(t, blocks)
	if len(items) != 2 || items[0].Elements[1].Text != "second" || items[1].Elements[1].Text != "third" {
		t.Errorf("порядок строк нарушен: %+v", items)
	}
}

// TestFormat_Empty проверяет пустой вход.
func TestFormat_Empty(t *testing.T) {
	d := Format(nil)
	if d.Len() != 0 || len(d.Keys()) != 0 {
		t.Errorf("Format(nil) = %+v, ожидается пустой дайджест", d)
	}
	if _, ok := d.Get("2024-06-01"); ok {
		t.Error("Get на пустом дайджесте вернул ok")
	}
}

// TestFormat_JSON проверяет сериализацию в формат Block Kit.
func TestFormat_JSON(t *testing.T) {
	d := Format([]Entry{{Date: date("2024-06-01"), Committee: "Judiciary", Title: "Oversight"}})
	blocks, _ := d.Get("2024-06-01")

	data, err := json.Marshal(blocks)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	s := string(data)
	for _, want := range []string{
		`{"type":"text","text":"June 1, 2024","style":{"bold":true}}`,
		`{"type":"rich_text_list","style":"bullet","elements":[`,
		`{"type":"text","text":"Judiciary | ","style":{"bold":true}}`,
		`{"type":"text","text":"Oversight"}`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON не содержит %s:\n%s", want, s)
		}
	}
}

// TestEntriesFrom проверяет преобразование записей.
func TestEntriesFrom(t *testing.T) {
	hs := []*model.Hearing{
		{Identity: "1", EventDate: date("2024-06-01"), Committee: "C", Title: "T", URL: "u"},
	}
	entries := EntriesFrom(hs)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d", len(entries))
	}
	e := entries[0]
	if !e.Date.Equal(date("2024-06-01")) || e.Committee != "C" || e.Title != "T" || e.URL != "u" {
		t.Errorf("Entry = %+v", e)
	}
}

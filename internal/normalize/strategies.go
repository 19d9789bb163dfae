package normalize

import (
	"encoding/json"
	"strings"
)

// meeting — заседание комитета (ответ /committee-meeting/{congress}/{chamber}/{eventId}).
type meeting struct {
	RawTitle         string   `json:"title"`
	RawDate          string   `json:"date"`
	MeetingStatus    string   `json:"meetingStatus"`
	Committees       []named  `json:"committees"`
	Videos           []linked `json:"videos"`
	MeetingDocuments []linked `json:"meetingDocuments"`
}

func newMeeting(raw json.RawMessage) (Extractor, error) {
	var m meeting
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *meeting) Shape() string              { return ShapeMeeting }
func (m *meeting) Title() (string, error)     { return required(m.RawTitle) }
func (m *meeting) Date() (string, error)      { return required(m.RawDate) }
func (m *meeting) Committee() (string, error) { return required(firstName(m.Committees)) }
func (m *meeting) Status() (string, error)    { return strings.TrimSpace(m.MeetingStatus), nil }

// URL — первая видеозапись, иначе первый документ заседания.
func (m *meeting) URL() (string, error) {
	if u := firstURL(m.Videos); u != "" {
		return u, nil
	}
	return firstURL(m.MeetingDocuments), nil
}

// hearing — опубликованное слушание (ответ /hearing/{congress}/{chamber}/{jacketNumber}).
type hearing struct {
	RawTitle   string  `json:"title"`
	Committees []named `json:"committees"`
	Dates      []struct {
		Date string `json:"date"`
	} `json:"dates"`
	Formats []struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	} `json:"formats"`
}

func newHearing(raw json.RawMessage) (Extractor, error) {
	var h hearing
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (h *hearing) Shape() string              { return ShapeHearing }
func (h *hearing) Title() (string, error)     { return required(h.RawTitle) }
func (h *hearing) Committee() (string, error) { return required(firstName(h.Committees)) }

// Status — слушания не публикуют статус.
func (h *hearing) Status() (string, error) { return "", nil }

func (h *hearing) Date() (string, error) {
	for _, d := range h.Dates {
		if s := strings.TrimSpace(d.Date); s != "" {
			return s, nil
		}
	}
	return "", ErrFieldMissing
}

// URL — формат "Formatted Text", иначе первый формат со ссылкой.
func (h *hearing) URL() (string, error) {
	first := ""
	for _, f := range h.Formats {
		u := strings.TrimSpace(f.URL)
		if u == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(f.Type), "Formatted Text") {
			return u, nil
		}
		if first == "" {
			first = u
		}
	}
	return first, nil
}

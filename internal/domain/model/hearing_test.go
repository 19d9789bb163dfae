package model

import (
	"testing"
	"time"
)

func TestCandidate_Identity(t *testing.T) {
	tests := []struct {
		name     string
		c        Candidate
		expected string
	}{
		{name: "eventId", c: Candidate{EventID: "115538", JacketNumber: "12"}, expected: "115538"},
		{name: "jacketNumber", c: Candidate{JacketNumber: "55012"}, expected: "55012"},
		{name: "ведущие нули", c: Candidate{JacketNumber: "00123"}, expected: "00123"},
		{name: "нечисловой jacketNumber", c: Candidate{JacketNumber: "48-123"}, expected: "48-123"},
		{name: "нет идентификатора", c: Candidate{Locator: "http://x"}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Identity(); got != tt.expected {
				t.Errorf("Identity() = %q, ожидается %q", got, tt.expected)
			}
		})
	}
}

func TestHearing_IsUpcoming(t *testing.T) {
	h := &Hearing{EventDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)}

	tests := []struct {
		name     string
		today    time.Time
		expected bool
	}{
		{name: "день до", today: time.Date(2024, 6, 2, 23, 59, 0, 0, time.UTC), expected: true},
		{name: "тот же день", today: time.Date(2024, 6, 3, 18, 0, 0, 0, time.UTC), expected: true},
		{name: "день после", today: time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.IsUpcoming(tt.today); got != tt.expected {
				t.Errorf("IsUpcoming(%v) = %v, ожидается %v", tt.today, got, tt.expected)
			}
		})
	}
}

func TestHearing_StatusChanged(t *testing.T) {
	tests := []struct {
		status   string
		expected bool
	}{
		{status: "", expected: false},
		{status: StatusScheduled, expected: false},
		{status: "Postponed", expected: true},
		{status: "Cancelled", expected: true},
	}

	for _, tt := range tests {
		h := &Hearing{Status: tt.status}
		if got := h.StatusChanged(); got != tt.expected {
			t.Errorf("StatusChanged(%q) = %v, ожидается %v", tt.status, got, tt.expected)
		}
	}
}

func TestToday(t *testing.T) {
	now := time.Date(2024, 6, 1, 2, 30, 0, 0, time.UTC)
	ny := time.FixedZone("EDT", -4*3600)

	if got := Today(now, time.UTC); !got.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Today(UTC) = %v", got)
	}
	if got := Today(now, ny); !got.Equal(time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Today(EDT) = %v", got)
	}
	if got := Today(now, nil); !got.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Today(nil) = %v", got)
	}
}

package model

import "time"

// ISODate — формат ключей дайджеста и дат в API.
const ISODate = "2006-01-02"

// DateOf отбрасывает время, сохраняя календарную дату в часовом поясе t.
// Результат — полночь UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today возвращает текущую календарную дату в часовом поясе loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}

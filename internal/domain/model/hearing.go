package model

import "time"

// StatusScheduled — базовый статус источника; отличие от него считается изменением.
const StatusScheduled = "Scheduled"

// Hearing — запись слушания или заседания комитета.
// Хранится в таблице hearings, после вставки не изменяется.
type Hearing struct {
	// Identity — стабильный уникальный ключ (eventId или jacketNumber)
	Identity string
	// EventDate — дата проведения (календарная, 00:00 UTC)
	EventDate time.Time
	// Title — заголовок
	Title string
	// Committee — комитет-владелец; используется фильтром релевантности
	Committee string
	// URL — каноническая ссылка на запись (может быть пустой)
	URL string
	// SourceReference — локатор detail-запроса, по которому получена запись
	SourceReference string
	// Status — статус жизненного цикла от источника (пусто — не публикуется)
	Status string
	// InsertedOn — дата записи строки в хранилище
	InsertedOn time.Time
}

// IsUpcoming сообщает, что слушание назначено на today или позже.
func (h *Hearing) IsUpcoming(today time.Time) bool {
	return !h.EventDate.Before(DateOf(today))
}

// StatusChanged сообщает, что статус известен и отличается от базового.
func (h *Hearing) StatusChanged() bool {
	return h.Status != "" && h.Status != StatusScheduled
}

// Candidate — сырой элемент листинга источника.
type Candidate struct {
	// Kind — вид записи (hearing, meeting)
	Kind string
	// EventID — основной идентификатор (заседания комитетов)
	EventID string
	// JacketNumber — запасной идентификатор (опубликованные слушания), как в листинге
	JacketNumber string
	// Locator — URL detail-запроса
	Locator string
}

// Identity возвращает ключ кандидата: EventID, иначе JacketNumber.
// Пустая строка — идентификатор не определён.
func (c Candidate) Identity() string {
	if c.EventID != "" {
		return c.EventID
	}
	return c.JacketNumber
}

// Detail — поля, извлечённые из detail-ответа до разбора даты.
type Detail struct {
	Committee string
	Title     string
	RawDate   string
	URL       string
	Status    string
}

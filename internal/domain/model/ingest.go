package model

import "time"

// Причины пропуска кандидата.
const (
	SkipKnown       = "known"
	SkipKnownBad    = "known_bad"
	SkipDuplicate   = "duplicate"
	SkipNoIdentity  = "no_identity"
	SkipDetailFetch = "detail_fetch"
	SkipExtraction  = "extraction"
	SkipDateParse   = "date_parse"
)

// IngestResult — результат одного запуска ingestion.
type IngestResult struct {
	// RunID — UUID запуска (корреляция логов)
	RunID string
	// Candidates — количество кандидатов по видам записей
	Candidates map[string]int
	// Skipped — количество пропущенных кандидатов по причинам
	Skipped map[string]int
	// Inserted — сохранённые записи
	Inserted []*Hearing
	// Notifiable — подмножество Inserted, попадающее в уведомление
	Notifiable []*Hearing
	// Irrelevant — предстоящие записи, исключённые фильтром релевантности
	Irrelevant int
	// StartedAt — время начала запуска
	StartedAt time.Time
	// CompletedAt — время завершения запуска
	CompletedAt time.Time
}

// NoOp сообщает, что запуск завершился без записи в хранилище.
func (r *IngestResult) NoOp() bool {
	return len(r.Inserted) == 0
}

// IngestState — состояние ingestion (одна строка в БД).
// Хранится в таблице ingest_state (id = 1, всегда одна запись).
type IngestState struct {
	// LastUpdateAt — время последней успешной вставки пачки
	LastUpdateAt *time.Time
	// LastInsertedCount — размер последней пачки
	LastInsertedCount int
	// LastStatusCheckAt — время последнего режима check-status
	LastStatusCheckAt *time.Time
	// UpdatedAt — время последнего изменения строки
	UpdatedAt time.Time
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bigkaa/hearingwatch/internal/domain/model"
)

// IngestStateRepository — интерфейс для таблицы ingest_state (одна строка).
type IngestStateRepository interface {
	// Get возвращает текущее состояние ingestion.
	Get(ctx context.Context) (*model.IngestState, error)
	// RecordBatch фиксирует время и размер последней сохранённой пачки.
	RecordBatch(ctx context.Context, at time.Time, count int) error
	// MarkStatusCheck обновляет время последней проверки статусов.
	MarkStatusCheck(ctx context.Context, at time.Time) error
}

// ingestStateRepo — реализация IngestStateRepository.
type ingestStateRepo struct {
	db DBTX
}

// NewIngestStateRepository создаёт репозиторий состояния ingestion.
func NewIngestStateRepository(db DBTX) IngestStateRepository {
	return &ingestStateRepo{db: db}
}

func (r *ingestStateRepo) Get(ctx context.Context) (*model.IngestState, error) {
	query := `
		SELECT last_update_at, last_inserted_count, last_status_check_at, updated_at
		FROM ingest_state
		WHERE id = 1`

	s := &model.IngestState{}
	err := r.db.QueryRow(ctx, query).Scan(
		&s.LastUpdateAt, &s.LastInsertedCount, &s.LastStatusCheckAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения ingest_state: %w", err)
	}
	return s, nil
}

func (r *ingestStateRepo) RecordBatch(ctx context.Context, at time.Time, count int) error {
	query := `
		UPDATE ingest_state
		SET last_update_at = $1, last_inserted_count = $2, updated_at = NOW()
		WHERE id = 1`
	if _, err := r.db.Exec(ctx, query, at, count); err != nil {
		return fmt.Errorf("ошибка обновления last_update_at: %w", err)
	}
	return nil
}

func (r *ingestStateRepo) MarkStatusCheck(ctx context.Context, at time.Time) error {
	query := `UPDATE ingest_state SET last_status_check_at = $1, updated_at = NOW() WHERE id = 1`
	if _, err := r.db.Exec(ctx, query, at); err != nil {
		return fmt.Errorf("ошибка обновления last_status_check_at: %w", err)
	}
	return nil
}

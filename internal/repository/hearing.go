package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/hearingwatch/internal/domain/model"
)

// HearingRepository — доступ к таблице hearings.
// Записи только добавляются: обновление и удаление не поддерживаются.
type HearingRepository interface {
	// KnownIdentities возвращает множество всех сохранённых идентификаторов.
	KnownIdentities(ctx context.Context) (map[string]struct{}, error)
	// Insert добавляет одну запись. Дубликат identity — ErrConflict.
	Insert(ctx context.Context, h *model.Hearing) error
	// ListUpcomingWeek возвращает записи с event_date >= today в неделе today.
	ListUpcomingWeek(ctx context.Context, today time.Time) ([]*model.Hearing, error)
	// LastInsertedOn возвращает последнюю дату вставки среди предстоящих записей.
	LastInsertedOn(ctx context.Context, today time.Time) (time.Time, error)
	// ListInsertedOn возвращает предстоящие записи, вставленные в day.
	ListInsertedOn(ctx context.Context, day, today time.Time) ([]*model.Hearing, error)
	// ListStatusChanged возвращает предстоящие записи со статусом, отличным от baseline.
	ListStatusChanged(ctx context.Context, today time.Time, baseline string) ([]*model.Hearing, error)
}

// hearingRepo — реализация HearingRepository.
type hearingRepo struct {
	db DBTX
}

// NewHearingRepository создаёт репозиторий записей слушаний.
func NewHearingRepository(db DBTX) HearingRepository {
	return &hearingRepo{db: db}
}

const hearingColumns = `identity, event_date, title, committee, url, source_reference, status, inserted_on`

func (r *hearingRepo) KnownIdentities(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.Query(ctx, `SELECT identity FROM hearings`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения идентификаторов: %w", err)
	}
	defer rows.Close()

	known := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка сканирования идентификатора: %w", err)
		}
		known[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации идентификаторов: %w", err)
	}
	return known, nil
}

func (r *hearingRepo) Insert(ctx context.Context, h *model.Hearing) error {
	query := `
		INSERT INTO hearings (` + hearingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7::text, ''), $8)`

	_, err := r.db.Exec(ctx, query,
		h.Identity, h.EventDate, h.Title, h.Committee, h.URL,
		h.SourceReference, h.Status, h.InsertedOn,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: запись %s уже сохранена", ErrConflict, h.Identity)
		}
		return fmt.Errorf("ошибка вставки записи %s: %w", h.Identity, err)
	}
	return nil
}

func (r *hearingRepo) ListUpcomingWeek(ctx context.Context, today time.Time) ([]*model.Hearing, error) {
	query := `
		SELECT ` + hearingColumns + `
		FROM hearings
		WHERE event_date >= $1::date
			AND date_trunc('week', event_date) = date_trunc('week', $1::date)
		ORDER BY event_date ASC, identity ASC`

	return r.list(ctx, query, model.DateOf(today))
}

func (r *hearingRepo) LastInsertedOn(ctx context.Context, today time.Time) (time.Time, error) {
	query := `SELECT MAX(inserted_on) FROM hearings WHERE event_date >= $1::date`

	var last *time.Time
	if err := r.db.QueryRow(ctx, query, model.DateOf(today)).Scan(&last); err != nil {
		return time.Time{}, fmt.Errorf("ошибка получения даты последней вставки: %w", err)
	}
	if last == nil {
		return time.Time{}, ErrNotFound
	}
	return model.DateOf(*last), nil
}

func (r *hearingRepo) ListInsertedOn(ctx context.Context, day, today time.Time) ([]*model.Hearing, error) {
	query := `
		SELECT ` + hearingColumns + `
		FROM hearings
		WHERE event_date >= $1::date AND inserted_on = $2::date
		ORDER BY event_date ASC, identity ASC`

	return r.list(ctx, query, model.DateOf(today), model.DateOf(day))
}

func (r *hearingRepo) ListStatusChanged(ctx context.Context, today time.Time, baseline string) ([]*model.Hearing, error) {
	query := `
		SELECT ` + hearingColumns + `
		FROM hearings
		WHERE event_date >= $1::date AND status IS NOT NULL AND status <> $2
		ORDER BY event_date ASC, identity ASC`

	return r.list(ctx, query, model.DateOf(today), baseline)
}

// list выполняет запрос и сканирует записи.
func (r *hearingRepo) list(ctx context.Context, query string, args ...any) ([]*model.Hearing, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения записей: %w", err)
	}
	defer rows.Close()

	var result []*model.Hearing
	for rows.Next() {
		h, err := scanHearing(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		result = append(result, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации записей: %w", err)
	}
	return result, nil
}

func scanHearing(row pgx.Row) (*model.Hearing, error) {
	h := &model.Hearing{}
	var status *string
	if err := row.Scan(
		&h.Identity, &h.EventDate, &h.Title, &h.Committee, &h.URL,
		&h.SourceReference, &status, &h.InsertedOn,
	); err != nil {
		return nil, err
	}
	if status != nil {
		h.Status = *status
	}
	h.EventDate = model.DateOf(h.EventDate)
	h.InsertedOn = model.DateOf(h.InsertedOn)
	return h, nil
}

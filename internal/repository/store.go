package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bigkaa/hearingwatch/internal/domain/model"
)

// Store объединяет репозитории hearings и ingest_state над одним пулом.
// Пачка новых записей сохраняется в одной транзакции.
type Store struct {
	tx       *TxRunner
	hearings HearingRepository
	state    IngestStateRepository
}

// NewStore создаёт хранилище поверх пула подключений.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		tx:       NewTxRunner(pool),
		hearings: NewHearingRepository(pool),
		state:    NewIngestStateRepository(pool),
	}
}

// KnownIdentities возвращает множество сохранённых идентификаторов.
func (s *Store) KnownIdentities(ctx context.Context) (map[string]struct{}, error) {
	return s.hearings.KnownIdentities(ctx)
}

// InsertBatch сохраняет все записи и обновляет ingest_state в одной транзакции.
// Любая ошибка откатывает пачку целиком и возвращается как *StoreWriteError.
// Нарушение уникальности identity оборачивает ErrConflict.
func (s *Store) InsertBatch(ctx context.Context, hearings []*model.Hearing, runAt time.Time) error {
	if len(hearings) == 0 {
		return nil
	}

	err := s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		repo := NewHearingRepository(tx)
		for _, h := range hearings {
			if err := repo.Insert(ctx, h); err != nil {
				return err
			}
		}
		return NewIngestStateRepository(tx).RecordBatch(ctx, runAt, len(hearings))
	})
	if err != nil {
		return &StoreWriteError{Count: len(hearings), Err: err}
	}
	return nil
}

// ListUpcomingWeek — предстоящие записи текущей недели.
func (s *Store) ListUpcomingWeek(ctx context.Context, today time.Time) ([]*model.Hearing, error) {
	return s.hearings.ListUpcomingWeek(ctx, today)
}

// ListLastBatch возвращает предстоящие записи последней даты вставки.
// Пустой результат, если предстоящих записей нет.
func (s *Store) ListLastBatch(ctx context.Context, today time.Time) ([]*model.Hearing, error) {
	day, err := s.hearings.LastInsertedOn(ctx, today)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s.hearings.ListInsertedOn(ctx, day, today)
}

// ListStatusChanged — предстоящие записи со статусом, отличным от baseline.
func (s *Store) ListStatusChanged(ctx context.Context, today time.Time, baseline string) ([]*model.Hearing, error) {
	return s.hearings.ListStatusChanged(ctx, today, baseline)
}

// GetState возвращает состояние ingestion.
func (s *Store) GetState(ctx context.Context) (*model.IngestState, error) {
	return s.state.Get(ctx)
}

// MarkStatusCheck фиксирует время проверки статусов.
func (s *Store) MarkStatusCheck(ctx context.Context, at time.Time) error {
	return s.state.MarkStatusCheck(ctx, at)
}

// query.go — запросы чтения поверх хранилища (list-upcoming, list-last-batch,
// check-status и serve) с LRU-кэшем результатов.
// Обёртка над hashicorp/golang-lru/v2/expirable: ключ — запрос и дата «сегодня».
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/hearingwatch/internal/domain/model"
)

// Prometheus-метрики кэша запросов.
var (
	queryCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hw_query_cache_hits_total",
		Help: "Общее количество попаданий в кэш запросов чтения.",
	})
	queryCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hw_query_cache_misses_total",
		Help: "Общее количество промахов кэша запросов чтения.",
	})
)

// Имена запросов чтения.
const (
	QueryUpcoming  = "upcoming"
	QueryLastBatch = "last_batch"
	QueryChanged   = "changed"
)

// HearingReader — запросы чтения хранилища.
type HearingReader interface {
	ListUpcomingWeek(ctx context.Context, today time.Time) ([]*model.Hearing, error)
	ListLastBatch(ctx context.Context, today time.Time) ([]*model.Hearing, error)
	ListStatusChanged(ctx context.Context, today time.Time, baseline string) ([]*model.Hearing, error)
	GetState(ctx context.Context) (*model.IngestState, error)
	MarkStatusCheck(ctx context.Context, at time.Time) error
}

// QueryService — запросы чтения с необязательным кэшем.
type QueryService struct {
	reader HearingReader
	cache  *expirable.LRU[string, []*model.Hearing]
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

// NewQueryService создаёт сервис запросов.
// cacheSize <= 0 отключает кэш (CLI-режимы читают актуальные данные).
func NewQueryService(reader HearingReader, loc *time.Location, cacheSize int, cacheTTL time.Duration, logger *slog.Logger) *QueryService {
	s := &QueryService{
		reader: reader,
		loc:    loc,
		now:    time.Now,
		logger: logger.With(slog.String("component", "query")),
	}
	if cacheSize > 0 {
		s.cache = expirable.NewLRU[string, []*model.Hearing](cacheSize, nil, cacheTTL)
	}
	return s
}

// Today возвращает текущую календарную дату в часовом поясе сервиса.
func (s *QueryService) Today() time.Time {
	return model.Today(s.now(), s.loc)
}

// Upcoming — предстоящие записи текущей недели.
func (s *QueryService) Upcoming(ctx context.Context) ([]*model.Hearing, error) {
	return s.cached(ctx, QueryUpcoming, func(today time.Time) ([]*model.Hearing, error) {
		return s.reader.ListUpcomingWeek(ctx, today)
	})
}

// LastBatch — предстоящие записи последней пачки.
func (s *QueryService) LastBatch(ctx context.Context) ([]*model.Hearing, error) {
	return s.cached(ctx, QueryLastBatch, func(today time.Time) ([]*model.Hearing, error) {
		return s.reader.ListLastBatch(ctx, today)
	})
}

// Changed — предстоящие записи со статусом, отличным от Scheduled.
func (s *QueryService) Changed(ctx context.Context) ([]*model.Hearing, error) {
	return s.cached(ctx, QueryChanged, func(today time.Time) ([]*model.Hearing, error) {
		return s.reader.ListStatusChanged(ctx, today, model.StatusScheduled)
	})
}

// CheckStatus возвращает изменённые записи и фиксирует время проверки.
func (s *QueryService) CheckStatus(ctx context.Context) ([]*model.Hearing, error) {
	changed, err := s.Changed(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.reader.MarkStatusCheck(ctx, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("фиксация проверки статусов: %w", err)
	}
	s.logger.Info("Проверка статусов выполнена", slog.Int("changed", len(changed)))
	return changed, nil
}

// State возвращает состояние ingestion.
func (s *QueryService) State(ctx context.Context) (*model.IngestState, error) {
	st, err := s.reader.GetState(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение состояния: %w", err)
	}
	return st, nil
}

func (s *QueryService) cached(ctx context.Context, name string, load func(today time.Time) ([]*model.Hearing, error)) ([]*model.Hearing, error) {
	today := s.Today()
	key := name + ":" + today.Format(model.ISODate)

	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			queryCacheHitsTotal.Inc()
			return v, nil
		}
		queryCacheMissesTotal.Inc()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hearings, err := load(today)
	if err != nil {
		return nil, fmt.Errorf("запрос %s: %w", name, err)
	}
	if s.cache != nil {
		s.cache.Add(key, hearings)
	}
	return hearings, nil
}

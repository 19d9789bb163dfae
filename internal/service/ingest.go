// ingest.go — Change Engine: один запуск ingestion.
//
// IngestService.Run выполняет запуск до конца, последовательно:
//  1. Загрузка множества известных идентификаторов из хранилища
//  2. Листинг кандидатов по каждому виду записи (ошибка листинга прерывает запуск)
//  3. Для каждого нового кандидата: detail → нормализация → разбор даты → классификация
//  4. Сохранение всей пачки одной транзакцией
//  5. Дайджест уведомлений из предстоящих релевантных записей
//
// Ошибки отдельного кандидата логируются и пропускают только его.
//
// Prometheus-метрики:
//   - hw_ingest_runs_total — запуски по результату
//   - hw_ingest_candidates_total — кандидаты по виду записи
//   - hw_ingest_skipped_total — пропущенные кандидаты по причине
//   - hw_ingest_inserted_total, hw_ingest_notifiable_total
//   - hw_ingest_duration_seconds — длительность запуска
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/hearingwatch/internal/domain/model"
	"github.com/bigkaa/hearingwatch/internal/domain/relevance"
	"github.com/bigkaa/hearingwatch/internal/normalize"
	"github.com/bigkaa/hearingwatch/internal/notify"
)

// Результаты запуска (лейбл result).
const (
	RunResultOK         = "ok"
	RunResultNoOp       = "noop"
	RunResultFetchError = "fetch_error"
	RunResultStoreError = "store_error"
)

// Prometheus-метрики ingestion.
var (
	ingestRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hw_ingest_runs_total",
		Help: "Количество запусков ingestion по результату",
	}, []string{"result"})

	ingestCandidatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hw_ingest_candidates_total",
		Help: "Количество кандидатов в листингах",
	}, []string{"kind"})

	ingestSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hw_ingest_skipped_total",
		Help: "Количество пропущенных кандидатов",
	}, []string{"reason"})

	ingestInsertedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hw_ingest_inserted_total",
		Help: "Количество сохранённых записей",
	})

	ingestNotifiableTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hw_ingest_notifiable_total",
		Help: "Количество записей, попавших в уведомление",
	})

	ingestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hw_ingest_duration_seconds",
		Help:    "Длительность запуска ingestion",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s … ~17m
	})
)

// CandidateSource — источник кандидатов (листинг и detail).
type CandidateSource interface {
	ListCandidates(ctx context.Context, kind string) ([]model.Candidate, error)
	FetchDetail(ctx context.Context, locator string) ([]byte, error)
}

// HearingStore — часть хранилища, нужная запуску.
type HearingStore interface {
	KnownIdentities(ctx context.Context) (map[string]struct{}, error)
	InsertBatch(ctx context.Context, hearings []*model.Hearing, runAt time.Time) error
}

// IngestService — Change Engine.
type IngestService struct {
	source CandidateSource
	store  HearingStore
	filter *relevance.Filter
	kinds  []string
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

// NewIngestService создаёт сервис ingestion.
// kinds — виды записей в порядке обхода; loc — часовой пояс, задающий «сегодня».
func NewIngestService(
	source CandidateSource,
	store HearingStore,
	filter *relevance.Filter,
	kinds []string,
	loc *time.Location,
	logger *slog.Logger,
) *IngestService {
	return &IngestService{
		source: source,
		store:  store,
		filter: filter,
		kinds:  kinds,
		loc:    loc,
		now:    time.Now,
		logger: logger.With(slog.String("component", "ingest")),
	}
}

// Run выполняет один запуск. Ошибка листинга или записи возвращается
// без дайджеста; запуск без новых записей — успешный no-op с пустым дайджестом.
func (s *IngestService) Run(ctx context.Context) (*model.IngestResult, notify.Digest, error) {
	startedAt := s.now().UTC()
	today := model.Today(startedAt, s.loc)

	result := &model.IngestResult{
		RunID:      uuid.New().String(),
		Candidates: make(map[string]int, len(s.kinds)),
		Skipped:    make(map[string]int),
		StartedAt:  startedAt,
	}
	log := s.logger.With(slog.String("run_id", result.RunID))

	log.Info("Запуск ingestion",
		slog.String("today", today.Format(model.ISODate)),
		slog.Any("kinds", s.kinds),
	)

	// 1. Известные идентификаторы
	known, err := s.store.KnownIdentities(ctx)
	if err != nil {
		log.Warn("Хранилище недоступно для чтения, продолжаем с пустым множеством",
			slog.String("error", err.Error()),
		)
		known = nil
	}

	// 2. Листинги
	var candidates []model.Candidate
	for _, kind := range s.kinds {
		list, err := s.source.ListCandidates(ctx, kind)
		if err != nil {
			s.finish(result, RunResultFetchError)
			log.Error("Ошибка листинга, запуск прерван",
				slog.String("kind", kind),
				slog.String("error", err.Error()),
			)
			return result, nil, fmt.Errorf("листинг %s: %w", kind, err)
		}
		result.Candidates[kind] = len(list)
		ingestCandidatesTotal.WithLabelValues(kind).Add(float64(len(list)))
		candidates = append(candidates, list...)
	}

	// 3. Обработка кандидатов в порядке листинга
	seen := make(map[string]struct{})
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			s.finish(result, RunResultFetchError)
			return result, nil, fmt.Errorf("запуск прерван: %w", err)
		}

		h, reason := s.process(ctx, log, c, known, seen)
		if h == nil {
			s.skip(result, reason)
			continue
		}

		h.InsertedOn = today
		result.Inserted = append(result.Inserted, h)

		switch {
		case !h.IsUpcoming(today):
			log.Debug("Запись прошедшая, уведомление не требуется",
				slog.String("identity", h.Identity),
				slog.String("event_date", h.EventDate.Format(model.ISODate)),
				slog.String("reason", "past_date"),
			)
		case s.filter.IsIrrelevant(h.Committee):
			result.Irrelevant++
			log.Info("Комитет исключён из уведомлений",
				slog.String("identity", h.Identity),
				slog.String("committee", h.Committee),
				slog.String("reason", "irrelevant_committee"),
			)
		default:
			result.Notifiable = append(result.Notifiable, h)
		}
	}

	// 4. No-op: нечего сохранять
	if result.NoOp() {
		s.finish(result, RunResultNoOp)
		log.Info("Новых записей нет", slog.Any("skipped", result.Skipped))
		return result, nil, nil
	}

	// 5. Сохранение пачки
	if err := s.store.InsertBatch(ctx, result.Inserted, startedAt); err != nil {
		s.finish(result, RunResultStoreError)
		log.Error("Ошибка сохранения пачки",
			slog.Int("count", len(result.Inserted)),
			slog.String("error", err.Error()),
		)
		return result, nil, fmt.Errorf("сохранение пачки: %w", err)
	}

	// 6. Дайджест
	digest := notify.Format(notify.EntriesFrom(result.Notifiable))

	ingestInsertedTotal.Add(float64(len(result.Inserted)))
	ingestNotifiableTotal.Add(float64(len(result.Notifiable)))
	s.finish(result, RunResultOK)

	log.Info("Ingestion завершён",
		slog.Int("inserted", len(result.Inserted)),
		slog.Int("notifiable", len(result.Notifiable)),
		slog.Int("irrelevant", result.Irrelevant),
		slog.Int("days", digest.Len()),
		slog.Any("skipped", result.Skipped),
		slog.String("duration", result.CompletedAt.Sub(result.StartedAt).String()),
	)
	return result, digest, nil
}

// process проводит кандидата через detail, нормализацию и разбор даты.
// nil и причина — кандидат пропущен.
func (s *IngestService) process(
	ctx context.Context,
	log *slog.Logger,
	c model.Candidate,
	known, seen map[string]struct{},
) (*model.Hearing, string) {
	id := c.Identity()
	if id == "" {
		log.Warn("Кандидат без идентификатора",
			slog.String("kind", c.Kind),
			slog.String("locator", c.Locator),
			slog.String("reason", model.SkipNoIdentity),
		)
		return nil, model.SkipNoIdentity
	}
	if _, ok := known[id]; ok {
		return nil, model.SkipKnown
	}
	if s.filter.IsKnownBad(id) {
		return nil, model.SkipKnownBad
	}
	if _, ok := seen[id]; ok {
		log.Debug("Повтор идентификатора в листинге", slog.String("identity", id))
		return nil, model.SkipDuplicate
	}
	seen[id] = struct{}{}

	payload, err := s.source.FetchDetail(ctx, c.Locator)
	if err != nil {
		s.candidateError(log, id, model.SkipDetailFetch, err)
		return nil, model.SkipDetailFetch
	}

	detail, err := normalize.Normalize(payload)
	if err != nil {
		s.candidateError(log, id, model.SkipExtraction, err)
		return nil, model.SkipExtraction
	}

	eventDate, err := normalize.ParseDate(detail.RawDate)
	if err != nil {
		s.candidateError(log, id, model.SkipDateParse, err)
		return nil, model.SkipDateParse
	}

	return &model.Hearing{
		Identity:        id,
		EventDate:       eventDate,
		Title:           detail.Title,
		Committee:       detail.Committee,
		URL:             detail.URL,
		SourceReference: c.Locator,
		Status:          detail.Status,
	}, ""
}

// candidateError — единственная запись лога об ошибке кандидата.
func (s *IngestService) candidateError(log *slog.Logger, id, reason string, err error) {
	attrs := []any{
		slog.String("identity", id),
		slog.String("reason", reason),
		slog.String("error", err.Error()),
	}
	var ee *normalize.ExtractionError
	if errors.As(err, &ee) {
		attrs = append(attrs, slog.String("field", ee.Field))
	}
	log.Error("Кандидат пропущен", attrs...)
}

func (s *IngestService) skip(result *model.IngestResult, reason string) {
	result.Skipped[reason]++
	ingestSkippedTotal.WithLabelValues(reason).Inc()
}

func (s *IngestService) finish(result *model.IngestResult, outcome string) {
	result.CompletedAt = s.now().UTC()
	ingestRunsTotal.WithLabelValues(outcome).Inc()
	ingestDuration.Observe(result.CompletedAt.Sub(result.StartedAt).Seconds())
}

package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/bigkaa/hearingwatch/internal/domain/model"
)

// fakeReader — HearingReader со счётчиками вызовов.
type fakeReader struct {
	upcoming  []*model.Hearing
	lastBatch []*model.Hearing
	changed   []*model.Hearing
	state     *model.IngestState
	err       error
	markErr   error

	calls    map[string]int
	baseline string
	today    time.Time
	markedAt time.Time
}

func newFakeReader() *fakeReader {
	return &fakeReader{calls: make(map[string]int)}
}

func (f *fakeReader) ListUpcomingWeek(_ context.Context, today time.Time) ([]*model.Hearing, error) {
	f.calls[QueryUpcoming]++
	f.today = today
	return f.upcoming, f.err
}

func (f *fakeReader) ListLastBatch(_ context.Context, today time.Time) ([]*model.Hearing, error) {
	f.calls[QueryLastBatch]++
	f.today = today
	return f.lastBatch, f.err
}

func (f *fakeReader) ListStatusChanged(_ context.Context, today time.Time, baseline string) ([]*model.Hearing, error) {
	f.calls[QueryChanged]++
	f.today = today
	f.baseline = baseline
	return f.changed, f.err
}

func (f *fakeReader) GetState(context.Context) (*model.IngestState, error) {
	return f.state, f.err
}

func (f *fakeReader) MarkStatusCheck(_ context.Context, at time.Time) error {
	f.markedAt = at
	return f.markErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestQuery(reader HearingReader, cacheSize int) *QueryService {
	s := NewQueryService(reader, time.UTC, cacheSize, time.Minute, testLogger())
	s.now = func() time.Time { return testNow }
	return s
}

// TestQueryService_Today проверяет календарную дату в часовом поясе сервиса.
func TestQueryService_Today(t *testing.T) {
	loc := time.FixedZone("UTC-10", -10*3600)
	s := NewQueryService(newFakeReader(), loc, 0, 0, testLogger())
	// 2024-06-01 05:00 UTC — в UTC-10 ещё 31 мая
	s.now = func() time.Time { return time.Date(2024, 6, 1, 5, 0, 0, 0, time.UTC) }

	want := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
	if got := s.Today(); !got.Equal(want) {
		t.Errorf("Today() = %v, ожидается %v", got, want)
	}
}

// TestQueryService_Cache проверяет попадание в кэш для повторного запроса.
func TestQueryService_Cache(t *testing.T) {
	reader := newFakeReader()
	reader.upcoming = []*model.Hearing{{Identity: "1"}}
	s := newTestQuery(reader, 16)

	for i := 0; i < 3; i++ {
		got, err := s.Upcoming(context.Background())
		if err != nil {
			t.Fatalf("Upcoming() ошибка: %v", err)
		}
		if len(got) != 1 || got[0].Identity != "1" {
			t.Fatalf("Upcoming() = %v", got)
		}
	}
	if reader.calls[QueryUpcoming] != 1 {
		t.Errorf("обращений к хранилищу = %d, ожидается 1", reader.calls[QueryUpcoming])
	}
	if !reader.today.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("today = %v, ожидается 2024-06-01", reader.today)
	}

	// Другой запрос — другой ключ
	if _, err := s.LastBatch(context.Background()); err != nil {
		t.Fatalf("LastBatch() ошибка: %v", err)
	}
	if reader.calls[QueryLastBatch] != 1 {
		t.Errorf("обращений LastBatch = %d, ожидается 1", reader.calls[QueryLastBatch])
	}
}

// TestQueryService_CacheKeyByDay проверяет смену ключа при смене дня.
func TestQueryService_CacheKeyByDay(t *testing.T) {
	reader := newFakeReader()
	s := newTestQuery(reader, 16)

	if _, err := s.Upcoming(context.Background()); err != nil {
		t.Fatalf("Upcoming() ошибка: %v", err)
	}
	s.now = func() time.Time { return testNow.Add(24 * time.Hour) }
	if _, err := s.Upcoming(context.Background()); err != nil {
		t.Fatalf("Upcoming() ошибка: %v", err)
	}
	if reader.calls[QueryUpcoming] != 2 {
		t.Errorf("обращений к хранилищу = %d, ожидается 2", reader.calls[QueryUpcoming])
	}
}

// TestQueryService_NoCache проверяет режим без кэша.
func TestQueryService_NoCache(t *testing.T) {
	reader := newFakeReader()
	s := newTestQuery(reader, 0)

	for i := 0; i < 2; i++ {
		if _, err := s.Changed(context.Background()); err != nil {
			t.Fatalf("Changed() ошибка: %v", err)
		}
	}
	if reader.calls[QueryChanged] != 2 {
		t.Errorf("обращений к хранилищу = %d, ожидается 2", reader.calls[QueryChanged])
	}
	if reader.baseline != model.StatusScheduled {
		t.Errorf("baseline = %q, ожидается %q", reader.baseline, model.StatusScheduled)
	}
}

// TestQueryService_ErrorNotCached проверяет, что ошибка не кэшируется.
func TestQueryService_ErrorNotCached(t *testing.T) {
	reader := newFakeReader()
	reader.err = errors.New("нет соединения")
	s := newTestQuery(reader, 16)

	if _, err := s.LastBatch(context.Background()); err == nil {
		t.Fatal("ожидалась ошибка")
	}

	reader.err = nil
	reader.lastBatch = []*model.Hearing{{Identity: "2"}}
	got, err := s.LastBatch(context.Background())
	if err != nil {
		t.Fatalf("LastBatch() ошибка: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("LastBatch() = %v, ожидается одна запись", got)
	}
}

// TestQueryService_CheckStatus проверяет фиксацию времени проверки.
func TestQueryService_CheckStatus(t *testing.T) {
	reader := newFakeReader()
	reader.changed = []*model.Hearing{{Identity: "3", Status: "Postponed"}}
	s := newTestQuery(reader, 0)

	got, err := s.CheckStatus(context.Background())
	if err != nil {
		t.Fatalf("CheckStatus() ошибка: %v", err)
	}
	if len(got) != 1 || got[0].Status != "Postponed" {
		t.Errorf("CheckStatus() = %v", got)
	}
	if !reader.markedAt.Equal(testNow) {
		t.Errorf("markedAt = %v, ожидается %v", reader.markedAt, testNow)
	}

	reader.markErr = errors.New("запись запрещена")
	if _, err := s.CheckStatus(context.Background()); err == nil {
		t.Error("ожидалась ошибка фиксации проверки")
	}
}

// TestQueryService_State проверяет проброс состояния.
func TestQueryService_State(t *testing.T) {
	reader := newFakeReader()
	reader.state = &model.IngestState{LastInsertedCount: 4}
	s := newTestQuery(reader, 0)

	st, err := s.State(context.Background())
	if err != nil {
		t.Fatalf("State() ошибка: %v", err)
	}
	if st.LastInsertedCount != 4 {
		t.Errorf("LastInsertedCount = %d, ожидается 4", st.LastInsertedCount)
	}
}

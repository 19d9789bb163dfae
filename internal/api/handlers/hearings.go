// hearings.go — read-only endpoints записей:
//   - GET /api/v1/hearings/upcoming — предстоящие записи текущей недели
//   - GET /api/v1/hearings/last-batch — предстоящие записи последней пачки
//   - GET /api/v1/hearings/changed — предстоящие записи с изменённым статусом
//   - GET /api/v1/state — состояние ingestion
//
// Параметр view=digest возвращает дайджест по дням в формате блоков Slack.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	apierrors "github.com/bigkaa/hearingwatch/internal/api/errors"
	"github.com/bigkaa/hearingwatch/internal/domain/model"
	"github.com/bigkaa/hearingwatch/internal/notify"
)

// HearingQuery — запросы чтения (реализуется service.QueryService).
type HearingQuery interface {
	Today() time.Time
	Upcoming(ctx context.Context) ([]*model.Hearing, error)
	LastBatch(ctx context.Context) ([]*model.Hearing, error)
	Changed(ctx context.Context) ([]*model.Hearing, error)
	State(ctx context.Context) (*model.IngestState, error)
}

// HearingsHandler — обработчик endpoints записей.
type HearingsHandler struct {
	query  HearingQuery
	logger *slog.Logger
}

// NewHearingsHandler создаёт обработчик endpoints записей.
func NewHearingsHandler(query HearingQuery, logger *slog.Logger) *HearingsHandler {
	return &HearingsHandler{
		query:  query,
		logger: logger.With(slog.String("component", "hearings_handler")),
	}
}

type hearingResponse struct {
	Identity        string  `json:"identity"`
	EventDate       string  `json:"event_date"`
	Title           string  `json:"title"`
	Committee       string  `json:"committee"`
	URL             string  `json:"url,omitempty"`
	SourceReference string  `json:"source_reference,omitempty"`
	Status          *string `json:"status"`
	InsertedOn      string  `json:"inserted_on"`
}

type hearingListResponse struct {
	Today    string            `json:"today"`
	Count    int               `json:"count"`
	Hearings []hearingResponse `json:"hearings,omitempty"`
	Days     notify.Digest     `json:"days,omitempty"`
}

type stateResponse struct {
	LastUpdateAt      *string `json:"last_update_at"`
	LastInsertedCount int     `json:"last_inserted_count"`
	LastStatusCheckAt *string `json:"last_status_check_at"`
	UpdatedAt         string  `json:"updated_at"`
}

// Upcoming — GET /api/v1/hearings/upcoming.
func (h *HearingsHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "upcoming", h.query.Upcoming)
}

// LastBatch — GET /api/v1/hearings/last-batch.
func (h *HearingsHandler) LastBatch(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "last-batch", h.query.LastBatch)
}

// Changed — GET /api/v1/hearings/changed.
func (h *HearingsHandler) Changed(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "changed", h.query.Changed)
}

// State — GET /api/v1/state.
func (h *HearingsHandler) State(w http.ResponseWriter, r *http.Request) {
	st, err := h.query.State(r.Context())
	if err != nil {
		h.logger.Error("Ошибка получения состояния", slog.String("error", err.Error()))
		apierrors.StoreUnavailable(w, "Хранилище недоступно")
		return
	}

	writeJSON(w, http.StatusOK, stateResponse{
		LastUpdateAt:      formatTimePtr(st.LastUpdateAt),
		LastInsertedCount: st.LastInsertedCount,
		LastStatusCheckAt: formatTimePtr(st.LastStatusCheckAt),
		UpdatedAt:         st.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

func (h *HearingsHandler) list(
	w http.ResponseWriter,
	r *http.Request,
	name string,
	load func(ctx context.Context) ([]*model.Hearing, error),
) {
	view := r.URL.Query().Get("view")
	if view != "" && view != "list" && view != "digest" {
		apierrors.ValidationError(w, "Параметр view: допустимые значения list, digest")
		return
	}

	hearings, err := load(r.Context())
	if err != nil {
		h.logger.Error("Ошибка запроса записей",
			slog.String("query", name),
			slog.String("error", err.Error()),
		)
		apierrors.StoreUnavailable(w, "Хранилище недоступно")
		return
	}

	resp := hearingListResponse{
		Today: h.query.Today().Format(model.ISODate),
		Count: len(hearings),
	}
	if view == "digest" {
		resp.Days = notify.Format(notify.EntriesFrom(hearings))
	} else {
		resp.Hearings = make([]hearingResponse, 0, len(hearings))
		for _, hr := range hearings {
			resp.Hearings = append(resp.Hearings, hearingToResponse(hr))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func hearingToResponse(h *model.Hearing) hearingResponse {
	resp := hearingResponse{
		Identity:        h.Identity,
		EventDate:       h.EventDate.Format(model.ISODate),
		Title:           h.Title,
		Committee:       h.Committee,
		URL:             h.URL,
		SourceReference: h.SourceReference,
		InsertedOn:      h.InsertedOn.Format(model.ISODate),
	}
	if h.Status != "" {
		status := h.Status
		resp.Status = &status
	}
	return resp
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

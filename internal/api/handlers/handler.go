// handler.go — основной обработчик API hearing-watch.
// Объединяет health и read-only endpoints записей и регистрирует маршруты.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/hearingwatch/internal/api/errors"
)

// APIHandler — основной обработчик API.
type APIHandler struct {
	health   *HealthHandler
	hearings *HearingsHandler
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(health *HealthHandler, hearings *HearingsHandler) *APIHandler {
	return &APIHandler{
		health:   health,
		hearings: hearings,
	}
}

// Register регистрирует маршруты в роутере.
func (h *APIHandler) Register(r chi.Router) {
	r.Get("/health/live", h.health.HealthLive)
	r.Get("/health/ready", h.health.HealthReady)
	r.Get("/metrics", h.health.GetMetrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/hearings/upcoming", h.hearings.Upcoming)
		r.Get("/hearings/last-batch", h.hearings.LastBatch)
		r.Get("/hearings/changed", h.hearings.Changed)
		r.Get("/state", h.hearings.State)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apierrors.NotFound(w, "Маршрут не найден: "+r.URL.Path)
	})
}

package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/xela07ax/loyalty-ordering/internal/audit"
	"github.com/xela07ax/loyalty-ordering/internal/console/service"
)

type AuditHandler struct {
	service *service.AuditService
}

func NewAuditHandler(s *service.AuditService) *AuditHandler {
	return &AuditHandler{service: s}
}

// GetLogs возвращает журнал сделок с фильтрацией
// GET /v1/audit?restaurant_id=...&policy_id=...&limit=...
func (h *AuditHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := audit.Filter{
		RestaurantID: q.Get("restaurant_id"),
		PolicyID:     q.Get("policy_id"),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		f.Limit = n
	}

	logs, err := h.service.FetchLogs(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// GetStats сводка по сделкам за окно
// GET /v1/audit/stats?restaurant_id=...&window=1h
func (h *AuditHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	var window time.Duration
	if raw := r.URL.Query().Get("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			http.Error(w, "invalid window", http.StatusBadRequest)
			return
		}
		window = d
	}

	stats, err := h.service.Stats(r.Context(), r.URL.Query().Get("restaurant_id"), window)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xela07ax/loyalty-ordering/internal/console/service"
	"github.com/xela07ax/loyalty-ordering/internal/domain"
)

type PolicyHandler struct {
	service *service.PolicyService
	logger  *zap.Logger
}

func NewPolicyHandler(s *service.PolicyService, logger *zap.Logger) *PolicyHandler {
	return &PolicyHandler{service: s, logger: logger}
}

// Get возвращает политику по ID.
// GET /v1/policies/{id}
func (h *PolicyHandler) Get(w http.ResponseWriter, r *http.Request) {
	policy, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get policy", err)
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

// List возвращает политики ресторана.
// GET /v1/policies?restaurant_id=...
func (h *PolicyHandler) List(w http.ResponseWriter, r *http.Request) {
	policies, err := h.service.List(r.Context(), r.URL.Query().Get("restaurant_id"))
	if err != nil {
		h.fail(w, "list policies", err)
		return
	}
	if policies == nil {
		policies = []domain.Policy{}
	}
	writeJSON(w, http.StatusOK, policies)
}

// Create POST /v1/policies
func (h *PolicyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p domain.Policy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.service.Create(r.Context(), &p); err != nil {
		h.fail(w, "create policy", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Update PUT /v1/policies/{id}
func (h *PolicyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p domain.Policy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	p.ID = chi.URLParam(r, "id")

	if err := h.service.Update(r.Context(), &p); err != nil {
		h.fail(w, "update policy", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Delete DELETE /v1/policies/{id}
func (h *PolicyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete policy", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Pause POST /v1/policies/{id}/pause
func (h *PolicyHandler) Pause(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Pause(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "pause policy", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Resume POST /v1/policies/{id}/resume
func (h *PolicyHandler) Resume(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Resume(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "resume policy", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PolicyHandler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op+" failed", zap.Error(err))
	writeError(w, err)
}

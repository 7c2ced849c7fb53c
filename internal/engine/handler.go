package engine

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/xela07ax/loyalty-ordering/internal/connectors"
	"github.com/xela07ax/loyalty-ordering/internal/domain"
)

type evaluateRequest struct {
	UserID string      `json:"user_id"`
	Cart   domain.Cart `json:"cart"`
}

type createCartRequest struct {
	RestaurantID string `json:"restaurant_id"`
	UserID       string `json:"user_id"`
}

type addItemRequest struct {
	Item     domain.Item `json:"item"`
	Quantity int         `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type verifyRequest struct {
	PolicyIDs []string `json:"policy_ids"`
}

type redeemRequest struct {
	UserID string      `json:"user_id"`
	Item   domain.Item `json:"item"`
}

type suggestionResponse struct {
	Found      bool                     `json:"found"`
	Suggestion *domain.BundleSuggestion `json:"suggestion,omitempty"`
}

// OrderingHandler - HTTP-периметр ядра заказа.
type OrderingHandler struct {
	core   *OrderingCore
	logger *zap.Logger
}

func NewOrderingHandler(core *OrderingCore, logger *zap.Logger) *OrderingHandler {
	return &OrderingHandler{core: core, logger: logger.Named("ordering-api")}
}

// NewRouter собирает маршруты ordering API.
func NewRouter(h *OrderingHandler, metrics *Metrics, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(TracingMiddleware)
	r.Use(metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/restaurants/{id}", func(r chi.Router) {
			r.Post("/evaluate", h.Evaluate)
			r.Post("/policies/{policyID}/apply", h.Apply)
			r.Get("/bundles/suggestion", h.SuggestBundle)
		})

		r.Route("/carts", func(r chi.Router) {
			r.Post("/", h.CreateCart)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Delete("/items", h.ClearCart)
				r.Post("/items", h.AddItem)
				r.Patch("/items/{itemID}", h.UpdateItem)
				r.Delete("/items/{itemID}", h.RemoveItem)
				r.Post("/verify", h.Verify)
			})
		})

		r.Post("/passes/{id}/redeem", h.RedeemPass)
	})
	return r
}

// Evaluate применяет все доступные политики к переданной корзине.
// POST /v1/restaurants/{id}/evaluate
func (h *OrderingHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.core.EvaluateCart(r.Context(), chi.URLParam(r, "id"), req.UserID, req.Cart)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Apply - одна политика на корзине. Пустой эффект, если политика не подходит.
// POST /v1/restaurants/{id}/policies/{policyID}/apply
func (h *OrderingHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !decode(w, r, &req) {
		return
	}

	effect, err := h.core.ApplyPolicy(r.Context(), chi.URLParam(r, "id"), req.UserID, chi.URLParam(r, "policyID"), req.Cart)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, effect)
}

// SuggestBundle оценивает корзину пользователя (cart_id) или пустую корзину.
// GET /v1/restaurants/{id}/bundles/suggestion?user_id=&cart_id=
func (h *OrderingHandler) SuggestBundle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	restaurantID := chi.URLParam(r, "id")
	userID := r.URL.Query().Get("user_id")

	c := domain.Cart{RestaurantID: restaurantID, UserID: userID}
	if cartID := r.URL.Query().Get("cart_id"); cartID != "" {
		loaded, err := h.core.GetCart(ctx, cartID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		c = loaded
	}

	suggestion, ok, err := h.core.SuggestBundle(ctx, restaurantID, userID, c)
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp := suggestionResponse{Found: ok}
	if ok {
		resp.Suggestion = &suggestion
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /v1/carts
func (h *OrderingHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	var req createCartRequest
	if !decode(w, r, &req) {
		return
	}
	if req.RestaurantID == "" {
		http.Error(w, "restaurant_id is required", http.StatusBadRequest)
		return
	}

	c, err := h.core.CreateCart(r.Context(), req.RestaurantID, req.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// GET /v1/carts/{id}
func (h *OrderingHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.core.GetCart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// POST /v1/carts/{id}/items
func (h *OrderingHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	c, err := h.core.AddCartItem(r.Context(), chi.URLParam(r, "id"), req.Item, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// PATCH /v1/carts/{id}/items/{itemID}
func (h *OrderingHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := itemIDParam(w, r)
	if !ok {
		return
	}
	var req updateItemRequest
	if !decode(w, r, &req) {
		return
	}

	c, err := h.core.UpdateCartItem(r.Context(), chi.URLParam(r, "id"), itemID, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DELETE /v1/carts/{id}/items/{itemID}
func (h *OrderingHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := itemIDParam(w, r)
	if !ok {
		return
	}

	c, err := h.core.RemoveCartItem(r.Context(), chi.URLParam(r, "id"), itemID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DELETE /v1/carts/{id}/items
func (h *OrderingHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.core.ClearCart(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// POST /v1/carts/{id}/verify
func (h *OrderingHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decode(w, r, &req) {
		return
	}

	order, err := h.core.VerifyCart(r.Context(), chi.URLParam(r, "id"), req.PolicyIDs)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// POST /v1/passes/{id}/redeem
func (h *OrderingHandler) RedeemPass(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if !decode(w, r, &req) {
		return
	}

	pass, err := h.core.RedeemPass(r.Context(), chi.URLParam(r, "id"), req.UserID, req.Item)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pass)
}

// writeError переводит доменные ошибки в HTTP-статусы.
func (h *OrderingHandler) writeError(w http.ResponseWriter, err error) {
	var (
		rejected  *connectors.RejectedError
		throttled *connectors.ThrottleError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrRestaurantNotFound),
		errors.Is(err, domain.ErrPolicyNotFound),
		errors.Is(err, domain.ErrBundleNotFound),
		errors.Is(err, domain.ErrCartNotFound),
		errors.Is(err, domain.ErrCartItemNotFound),
		errors.Is(err, domain.ErrPassNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrPassExhausted),
		errors.Is(err, domain.ErrPassExpired),
		errors.Is(err, domain.ErrPassNotForItem):
		status = http.StatusConflict
	case isPricingError(err), errors.Is(err, domain.ErrInvalidQuantity):
		status = http.StatusBadRequest
	case errors.As(err, &rejected):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &throttled):
		status = http.StatusTooManyRequests
	case errors.Is(err, connectors.ErrVerifierUnavailable),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		status = http.StatusBadGateway
	}

	switch {
	case status == http.StatusBadGateway:
		h.logger.Warn("order service unavailable", zap.Error(err))
	case status >= http.StatusInternalServerError:
		h.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func isPricingError(err error) bool {
	for _, target := range []error{
		domain.ErrEmptyMenu,
		domain.ErrEmptyPath,
		domain.ErrMenuNodeNotFound,
		domain.ErrNotPricedLeaf,
		domain.ErrPathBeyondLeaf,
		domain.ErrModifierGroupNotFound,
		domain.ErrModifierOptionNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func itemIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "itemID"))
	if err != nil {
		http.Error(w, "item id must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decode допускает пустое тело: все поля запроса остаются нулевыми.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

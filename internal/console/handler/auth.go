package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/xela07ax/loyalty-ordering/internal/console/service"
	"github.com/xela07ax/loyalty-ordering/internal/domain"
)

// TokenIssuer выдает JWT оператору консоли.
type TokenIssuer interface {
	GenerateToken(ctx context.Context, username, password string) (*domain.TokenResponse, error)
}

type AuthHandler struct {
	issuer TokenIssuer
	logger *zap.Logger
}

func NewAuthHandler(issuer TokenIssuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{issuer: issuer, logger: logger.Named("auth")}
}

// Login обменивает логин и пароль оператора на токен.
// POST /auth/token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "username and password are required", http.StatusBadRequest)
		return
	}

	resp, err := h.issuer.GenerateToken(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		// Клиенту не уточняем, что именно неверно (логин или пароль)
		h.logger.Warn("operator login rejected",
			zap.String("username", req.Username),
			zap.String("remote_addr", r.RemoteAddr))
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	case err != nil:
		h.logger.Error("issue operator token", zap.String("username", req.Username), zap.Error(err))
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("operator logged in", zap.String("username", req.Username))
	writeJSON(w, http.StatusOK, resp)
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xela07ax/loyalty-ordering/internal/console/service"
	"github.com/xela07ax/loyalty-ordering/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrPolicyNotFound):
		http.Error(w, "Policy not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidPolicy):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Роли операторов консоли
const (
	RoleAdmin   = "admin"   // Управление политиками и паузой
	RoleAnalyst = "analyst" // Только чтение аудита
)

type CustomClaims struct {
	UserID       string `json:"user_id"`
	Role         string `json:"role"`
	RestaurantID string `json:"restaurant_id,omitempty"` // Пусто для операторов платформы
	jwt.RegisteredClaims
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"` // Всегда "Bearer"
	ExpiresIn   int64  `json:"expires_in"`
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	RestaurantID string    `json:"restaurant_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

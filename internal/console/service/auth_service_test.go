package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/xela07ax/loyalty-ordering/internal/domain"
	"github.com/xela07ax/loyalty-ordering/internal/infra/auth"
)

type fakeUsers map[string]*domain.User

func (f fakeUsers) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	return f[username], nil
}

func TestAuthService_GenerateToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users := fakeUsers{
		"manager": {ID: "u1", Username: "manager", PasswordHash: hash, Role: domain.RoleAdmin, RestaurantID: "r1"},
	}
	s := NewAuthService(users, key, time.Hour)

	resp, err := s.GenerateToken(context.Background(), "manager", "s3cret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if resp.TokenType != "Bearer" || resp.ExpiresIn != 3600 {
		t.Errorf("unexpected response: %+v", resp)
	}

	claims, err := auth.NewRSAValidator(&key.PublicKey).VerifyToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.Role != domain.RoleAdmin || claims.RestaurantID != "r1" || claims.UserID != "u1" {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := s.GenerateToken(context.Background(), "manager", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := s.GenerateToken(context.Background(), "ghost", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v", err)
	}
}

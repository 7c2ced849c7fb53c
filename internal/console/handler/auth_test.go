package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xela07ax/loyalty-ordering/internal/console/service"
	"github.com/xela07ax/loyalty-ordering/internal/domain"
)

type fakeIssuer struct {
	err error
}

func (f fakeIssuer) GenerateToken(_ context.Context, username, password string) (*domain.TokenResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	if username != "chef" || password != "secret" {
		return nil, service.ErrInvalidCredentials
	}
	return &domain.TokenResponse{AccessToken: "tok", TokenType: "Bearer", ExpiresIn: 3600}, nil
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name    string
		issuer  fakeIssuer
		body    string
		want    int
		wantLog string
	}{
		{name: "ok", body: `{"username":"chef","password":"secret"}`, want: http.StatusOK, wantLog: "operator logged in"},
		{name: "wrong password", body: `{"username":"chef","password":"nope"}`, want: http.StatusUnauthorized, wantLog: "operator login rejected"},
		{name: "missing password", body: `{"username":"chef"}`, want: http.StatusBadRequest},
		{name: "broken body", body: `{`, want: http.StatusBadRequest},
		{name: "signing failure", issuer: fakeIssuer{err: errors.New("no key")},
			body: `{"username":"chef","password":"secret"}`, want: http.StatusInternalServerError, wantLog: "issue operator token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.InfoLevel)
			h := NewAuthHandler(tt.issuer, zap.New(core))

			rec := httptest.NewRecorder()
			h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(tt.body)))

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.wantLog != "" && logs.FilterMessage(tt.wantLog).Len() != 1 {
				t.Errorf("expected log %q, got %v", tt.wantLog, logs.All())
			}
			if rec.Code == http.StatusOK {
				var resp domain.TokenResponse
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil || resp.AccessToken != "tok" {
					t.Errorf("unexpected token response: %+v, %v", resp, err)
				}
			}
		})
	}
}

func TestAuthHandler_RejectedLoginLogsUsername(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	h := NewAuthHandler(fakeIssuer{}, zap.New(core))

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"username":"mallory","password":"x"}`)))

	entries := logs.FilterField(zap.String("username", "mallory")).All()
	if len(entries) != 1 || entries[0].Level != zapcore.WarnLevel {
		t.Errorf("expected one warn entry for mallory, got %v", logs.All())
	}
	if strings.Contains(rec.Body.String(), "mallory") {
		t.Error("response must not echo the username")
	}
}

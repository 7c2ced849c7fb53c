package infra

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  port: 7000
verifier:
  mode: http
  url: http://orders.local
cart:
  ttl: 2h
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Chdir(dir)
	t.Setenv("APP_ENV", "production")
	t.Setenv("SERVER_PORT", "7100")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 7100 {
		t.Errorf("env override: port = %d, want 7100", cfg.Server.Port)
	}
	if cfg.Verifier.Mode != VerifierModeHTTP || cfg.Verifier.URL != "http://orders.local" {
		t.Errorf("verifier = %+v", cfg.Verifier)
	}
	if cfg.Cart.TTL != 2*time.Hour {
		t.Errorf("cart ttl = %v, want 2h", cfg.Cart.TTL)
	}
	if cfg.Journal.BufferSize != 10000 || cfg.Verifier.Attempts != 3 {
		t.Errorf("defaults not applied: journal=%+v attempts=%d", cfg.Journal, cfg.Verifier.Attempts)
	}
	if cfg.Env != "production" {
		t.Errorf("env = %q, want production", cfg.Env)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "local", cfg: Config{Verifier: VerifierConfig{Mode: VerifierModeLocal}, Cart: CartConfig{TTL: time.Hour}}},
		{name: "http without url", cfg: Config{Verifier: VerifierConfig{Mode: VerifierModeHTTP}, Cart: CartConfig{TTL: time.Hour}}, wantErr: true},
		{name: "grpc with addr", cfg: Config{Verifier: VerifierConfig{Mode: VerifierModeGRPC, Addr: "orders:9090"}, Cart: CartConfig{TTL: time.Hour}}},
		{name: "unknown mode", cfg: Config{Verifier: VerifierConfig{Mode: "smtp"}, Cart: CartConfig{TTL: time.Hour}}, wantErr: true},
		{name: "zero ttl", cfg: Config{Verifier: VerifierConfig{Mode: VerifierModeLocal}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := NewLogger(LoggerConfig{Level: "debug", Format: "console"}); err != nil {
		t.Errorf("console logger: %v", err)
	}
	if _, err := NewLogger(LoggerConfig{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := NewLogger(LoggerConfig{Level: "info", Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

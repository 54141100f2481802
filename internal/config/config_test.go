package config

import (
	"strings"
	"testing"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is unset")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/renovo")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("default port = %q, want 8080", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("default env = %q, want development", cfg.Env)
	}
	if cfg.DBMaxConns != 20 {
		t.Errorf("default max conns = %d, want 20", cfg.DBMaxConns)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Errorf("default max upload = %d, want %d", cfg.MaxUploadBytes, 10<<20)
	}
	if !cfg.IsDev() {
		t.Error("expected IsDev() in default config")
	}
}

func TestLoad_CORSOriginsSplit(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/renovo")
	t.Setenv("CORS_ORIGINS", "https://a.example.com,https://b.example.com")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("origins = %v, want 2 entries", cfg.CORSOrigins)
	}
}

func TestValidate(t *testing.T) {
	longSecret := strings.Repeat("s", 32)

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"dev without secret", Config{Env: "development", MaxUploadBytes: 1}, false},
		{"production without secret", Config{Env: "production", MaxUploadBytes: 1}, true},
		{"production with secret", Config{Env: "production", JWTSecret: longSecret, MaxUploadBytes: 1}, false},
		{"short secret", Config{Env: "production", JWTSecret: "short", MaxUploadBytes: 1}, true},
		{"zero upload limit", Config{Env: "development", MaxUploadBytes: 0}, true},
		{"smtp host without from", Config{Env: "development", MaxUploadBytes: 1, SMTPHost: "smtp.example.com"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

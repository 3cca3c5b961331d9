package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
)

func envFunc(env map[string]string) func(string) string {
	return func(k string) string { return env[k] }
}

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv(envFunc(map[string]string{
		"APP_DB_DSN":     "mongodb://127.0.0.1:27017/poopmates",
		"APP_JWT_SECRET": "secret",
	}))
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Env != "dev" || cfg.Addr != "127.0.0.1:3030" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.TokenTTL != time.Hour {
		t.Fatalf("unexpected token ttl: %s", cfg.TokenTTL)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
	kind, err := cfg.StoreKind()
	if err != nil || kind != StoreMongo {
		t.Fatalf("unexpected store kind: %s %v", kind, err)
	}
}

func TestLoadFromEnvLegacyNames(t *testing.T) {
	cfg, err := LoadFromEnv(envFunc(map[string]string{
		"MONGODB_URI": "mongodb+srv://cluster.example.net/app",
		"JWT_SECRET":  "legacy",
		"PORT":        "8080",
	}))
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.DBDSN != "mongodb+srv://cluster.example.net/app" || cfg.JWTSecret != "legacy" {
		t.Fatalf("legacy vars not picked up: %+v", cfg)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.Addr)
	}
}

func TestLoadFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing secret",
			env:  map[string]string{"APP_DB_DSN": "memory://"},
			want: "APP_JWT_SECRET",
		},
		{
			name: "missing dsn",
			env:  map[string]string{"APP_JWT_SECRET": "x"},
			want: "APP_DB_DSN",
		},
		{
			name: "unsupported scheme",
			env:  map[string]string{"APP_DB_DSN": "redis://localhost", "APP_JWT_SECRET": "x"},
			want: "unsupported scheme",
		},
		{
			name: "short prod secret",
			env:  map[string]string{"APP_ENV": "prod", "APP_DB_DSN": "memory://", "APP_JWT_SECRET": "short"},
			want: "at least 32 bytes",
		},
		{
			name: "bad ttl",
			env:  map[string]string{"APP_DB_DSN": "memory://", "APP_JWT_SECRET": "x", "APP_TOKEN_TTL": "-1h"},
			want: "APP_TOKEN_TTL",
		},
		{
			name: "bad env",
			env:  map[string]string{"APP_ENV": "staging", "APP_DB_DSN": "memory://", "APP_JWT_SECRET": "x"},
			want: "APP_ENV",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromEnv(envFunc(tt.env))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestStoreKind(t *testing.T) {
	tests := map[string]StoreKind{
		"mongodb://localhost:27017":          StoreMongo,
		"postgres://u:p@localhost:5432/db":   StorePostgres,
		"postgresql://u:p@localhost:5432/db": StorePostgres,
		"memory://":                          StoreMemory,
	}
	for dsn, want := range tests {
		got, err := Config{DBDSN: dsn}.StoreKind()
		if err != nil {
			t.Fatalf("StoreKind(%s): %v", dsn, err)
		}
		if got != want {
			t.Fatalf("StoreKind(%s) = %s, want %s", dsn, got, want)
		}
	}
}

func TestDotEnvFileParsing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")

	err := os.WriteFile(path, []byte(`# comment
APP_ADDR=127.0.0.1:8081
export APP_DB_DSN="mongodb://127.0.0.1:27017/poopmates"
APP_JWT_SECRET='supersecret'
`), 0o600)
	if err != nil {
		t.Fatalf("write env file: %v", err)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("read env file: %v", err)
	}

	cfg, err := LoadFromEnv(envFunc(env))
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Addr != "127.0.0.1:8081" {
		t.Fatalf("APP_ADDR: got %q", cfg.Addr)
	}
	if cfg.DBDSN != "mongodb://127.0.0.1:27017/poopmates" {
		t.Fatalf("APP_DB_DSN: got %q", cfg.DBDSN)
	}
	if cfg.JWTSecret != "supersecret" {
		t.Fatalf("APP_JWT_SECRET: got %q", cfg.JWTSecret)
	}
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type StoreKind string

const (
	StoreMongo    StoreKind = "mongodb"
	StorePostgres StoreKind = "postgres"
	StoreMemory   StoreKind = "memory"
)

type Config struct {
	Env         string
	Addr        string
	DBDSN       string
	DBName      string
	JWTSecret   string
	TokenTTL    time.Duration
	LogLevel    string
	CORSOrigins []string

	GoogleClientID string
	AppleServiceID string
}

// Load reads an optional .env file from the working directory (without
// overriding variables already set) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return LoadFromEnv(os.Getenv)
}

func LoadFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:            getenv("APP_ENV"),
		Addr:           getenv("APP_ADDR"),
		DBDSN:          firstNonEmpty(getenv("APP_DB_DSN"), getenv("MONGODB_URI")),
		DBName:         strings.TrimSpace(getenv("APP_DB_NAME")),
		JWTSecret:      firstNonEmpty(getenv("APP_JWT_SECRET"), getenv("JWT_SECRET")),
		LogLevel:       getenv("APP_LOG_LEVEL"),
		GoogleClientID: strings.TrimSpace(getenv("APP_GOOGLE_CLIENT_ID")),
		AppleServiceID: strings.TrimSpace(getenv("APP_APPLE_SERVICE_ID")),
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	switch cfg.Env {
	case "dev", "prod", "test":
	default:
		return Config{}, errors.New("APP_ENV: must be one of dev, test, prod")
	}

	if cfg.Addr == "" {
		if port := strings.TrimSpace(getenv("PORT")); port != "" {
			cfg.Addr = ":" + port
		} else {
			cfg.Addr = "127.0.0.1:3030"
		}
	}

	if cfg.DBDSN == "" {
		return Config{}, errors.New("APP_DB_DSN: required")
	}
	if _, err := cfg.StoreKind(); err != nil {
		return Config{}, err
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("APP_JWT_SECRET: required")
	}
	if cfg.IsProd() && len(cfg.JWTSecret) < 32 {
		return Config{}, errors.New("APP_JWT_SECRET: must be at least 32 bytes in prod")
	}

	ttlRaw := getenv("APP_TOKEN_TTL")
	if ttlRaw == "" {
		cfg.TokenTTL = time.Hour
	} else {
		ttl, err := time.ParseDuration(ttlRaw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_TOKEN_TTL: %w", err)
		}
		if ttl <= 0 {
			return Config{}, errors.New("APP_TOKEN_TTL: must be > 0")
		}
		cfg.TokenTTL = ttl
	}

	cfg.CORSOrigins = parseCSV(getenv("APP_CORS_ORIGINS"))
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	return cfg, nil
}

func (c Config) IsProd() bool { return c.Env == "prod" }

// StoreKind picks the storage backend from the DSN scheme.
func (c Config) StoreKind() (StoreKind, error) {
	u, err := url.Parse(c.DBDSN)
	if err != nil {
		return "", fmt.Errorf("APP_DB_DSN: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "mongodb", "mongodb+srv":
		return StoreMongo, nil
	case "postgres", "postgresql":
		return StorePostgres, nil
	case "memory":
		return StoreMemory, nil
	default:
		return "", fmt.Errorf("APP_DB_DSN: unsupported scheme %q", u.Scheme)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func parseCSV(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

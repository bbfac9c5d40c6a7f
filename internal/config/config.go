package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/v2"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const defaultPort = "8000"

var defaultCORSOrigins = []string{
	"http://localhost:5173",
	"https://fiber-frontend.onrender.com",
	"https://fiber-frontend.vercel.app",
}

// Config holds everything the server needs at startup.
// Handlers and services receive the pieces they need from it; none of them read the environment.
type Config struct {
	Env         string
	Port        string
	LogLevel    string
	CORSOrigins []string

	DB  DBConfig
	JWT JWTConfig

	BcryptCost      int
	HashConcurrency int
}

// JWTConfig holds token signing parameters
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// IsDevelopment reports whether internal error details may be exposed to clients.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	return loadFromEnv()
}

func loadFromEnv() (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"app_env":              EnvProduction,
		"log_level":            "info",
		"jwt_expiration_hours": 24,
		"bcrypt_cost":          10,
		"hash_concurrency":     runtime.NumCPU(),
		"db_connect_retries":   5,
		"db_retry_interval":    "5s",
	}
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("failed to set default %s: %w", key, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			value = strings.TrimSpace(value)
			if value == "" {
				return "", nil
			}
			return strings.ToLower(key), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// PORT is what most hosting platforms inject; SERVER_PORT wins when both are set.
	cfg := &Config{
		Env:             strings.ToLower(k.String("app_env")),
		Port:            firstNonEmpty(k.String("server_port"), k.String("port"), defaultPort),
		LogLevel:        k.String("log_level"),
		CORSOrigins:     parseCSV(k.String("cors_allowed_origins")),
		BcryptCost:      k.Int("bcrypt_cost"),
		HashConcurrency: k.Int("hash_concurrency"),
		JWT: JWTConfig{
			Secret:     k.String("jwt_secret"),
			Expiration: time.Duration(k.Int("jwt_expiration_hours")) * time.Hour,
		},
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = defaultCORSOrigins
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set in environment")
	}
	if cfg.JWT.Expiration <= 0 {
		cfg.JWT.Expiration = 24 * time.Hour
	}
	if cfg.HashConcurrency < 1 {
		cfg.HashConcurrency = 1
	}

	db, err := loadDBConfig(k)
	if err != nil {
		return nil, err
	}
	cfg.DB = *db

	return cfg, nil
}

func parseCSV(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

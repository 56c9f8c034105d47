package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	DatabaseURL string
	RedisURL    string

	MeiliSearchHost string
	MeiliMasterKey  string

	GeminiAPIKey string

	JWTSecret string

	// Cron spec for the nightly leaderboard rebuild
	LeaderboardRebuildSpec string

	RateLimitAI time.Duration
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		MeiliSearchHost: getEnv("MEILISEARCH_HOST", "http://localhost:7700"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),

		JWTSecret: getEnv("JWT_SECRET", "skillpath-dev-secret"),

		LeaderboardRebuildSpec: getEnv("LEADERBOARD_REBUILD_CRON", "0 3 * * *"),
	}

	var err error
	cfg.RateLimitAI, err = time.ParseDuration(getEnv("RATE_LIMIT_AI", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_AI: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port          string
	Env           string
	RedisURL      string // empty means in-memory persistence only
	RoomTTL       time.Duration
	UploadDir     string
	PublicBaseURL string // prefix for uploaded file URLs
}

// Load reads configuration from environment variables. A .env file is
// loaded first if present (for development).
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		RedisURL:      os.Getenv("REDIS_URL"),
		RoomTTL:       time.Duration(getEnvInt("ROOM_TTL_HOURS", 24)) * time.Hour,
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
	}
	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

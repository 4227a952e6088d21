package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/royalbingo/bingo-backend/utils/logger"
)

// Config holds everything read from the environment at startup.
type Config struct {
	Port           string
	DatabaseURL    string
	JWTSecret      string
	AllowedOrigins []string
}

// Load reads .env (if present) and the process environment.
// Missing required values are fatal: the server cannot run without them.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, reading environment variables")
	}

	cfg := &Config{
		Port:        getenv("PORT", "4000"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   getenv("JWT_SECRET", ""),
	}

	origins := getenv("ALLOWED_ORIGINS", "http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if cfg.DatabaseURL == "" {
		logger.Fatalf("DATABASE_URL is required in .env or environment")
	}
	if cfg.JWTSecret == "" {
		logger.Fatalf("JWT_SECRET is required in .env or environment")
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

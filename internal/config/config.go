package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBUser     string
	DBPassword string
	DBHost     string
	DBName     string

	// SQLite fallback when no MySQL host is configured
	DatabasePath string

	JWTSecret string
	Port      string
	OpenAIKey string

	RedisURL   string
	CORSOrigin string

	// Rate limiting (per client address, all endpoints)
	RateLimitMax    int
	RateLimitWindow time.Duration
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	// Database configuration
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbHost := os.Getenv("DB_HOST")
	dbName := os.Getenv("DB_NAME")

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "notes.db"
	}

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	// OpenAI configuration
	aiKey := os.Getenv("OPENAI_KEY")

	redisURL := os.Getenv("REDIS_URL")

	corsOrigin := os.Getenv("CORS_ORIGIN")
	if corsOrigin == "" {
		corsOrigin = "http://localhost:3000"
	}

	rateLimitMax := 100 // default value
	if v := os.Getenv("RATE_LIMIT_MAX"); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			rateLimitMax = val
		}
	}

	rateLimitWindowMins := 15 // default value
	if v := os.Getenv("RATE_LIMIT_WINDOW_MINUTES"); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			rateLimitWindowMins = val
		}
	}

	return &Config{
		DBUser:       dbUser,
		DBPassword:   dbPassword,
		DBHost:       dbHost,
		DBName:       dbName,
		DatabasePath: dbPath,
		JWTSecret:    jwtSecret,
		Port:         port,
		OpenAIKey:    aiKey,
		RedisURL:     redisURL,
		CORSOrigin:   corsOrigin,

		RateLimitMax:    rateLimitMax,
		RateLimitWindow: time.Duration(rateLimitWindowMins) * time.Minute,
	}
}

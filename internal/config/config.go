package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"tomato_backend/internal/model"
)

type Config struct {
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	ServerPort string

	// JWTSecret may be empty: protected routes then fail with 500 instead of
	// the process refusing to start.
	JWTSecret           string
	SessionTokenMaxAge  time.Duration
	GoogleClientID      string
	IdentityTimeout     time.Duration
	RedisURL            string
	PostCacheTTL        time.Duration
	AutoMigrate         bool
	ShutdownGracePeriod time.Duration
}

// LoadConfig loads the server configuration. GOOGLE_CLIENT_ID is required.
func LoadConfig() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	if cfg.GoogleClientID == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID must be set")
	}
	if cfg.JWTSecret == "" {
		log.Println("[Config] JWT_SECRET is not set; sign-in and protected routes will fail")
	}
	return cfg, nil
}

// LoadDatabaseConfig loads the configuration without the identity checks,
// for commands that only talk to the database.
func LoadDatabaseConfig() (*Config, error) {
	return load()
}

func load() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "require"
	}

	autoMigrate := true
	if v := os.Getenv("MIGRATIONS_AUTO"); v != "" {
		autoMigrate, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MIGRATIONS_AUTO: %w", err)
		}
	}

	return &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      os.Getenv("DB_HOST"),
		DBPort:      os.Getenv("DB_PORT"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),
		DBSSLMode:   sslMode,

		ServerPort: serverPort,

		JWTSecret:           os.Getenv("JWT_SECRET"),
		SessionTokenMaxAge:  secondsEnv("SESSION_TOKEN_MAX_AGE", model.DefaultSessionTokenMaxAge),
		GoogleClientID:      os.Getenv("GOOGLE_CLIENT_ID"),
		IdentityTimeout:     secondsEnv("IDENTITY_TIMEOUT", 5*time.Second),
		RedisURL:            os.Getenv("REDIS_URL"),
		PostCacheTTL:        secondsEnv("POST_CACHE_TTL", 10*time.Minute),
		AutoMigrate:         autoMigrate,
		ShutdownGracePeriod: secondsEnv("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}, nil
}

// secondsEnv reads a positive number of seconds, falling back to def.
func secondsEnv(key string, def time.Duration) time.Duration {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}
